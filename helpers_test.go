package disco

import (
	"context"
	"net/http"
	"sync"
	"testing"
)

// recordingTransport records requests and answers with respond.
type recordingTransport struct {
	respond func(req *Request) (*Response, error)

	mu   sync.Mutex
	reqs []*Request
}

func newRecordingTransport(status int, body string) *recordingTransport {
	return &recordingTransport{respond: func(*Request) (*Response, error) {
		header := make(http.Header)
		if body != "" {
			header.Set("Content-Type", "application/json")
		}
		return &Response{StatusCode: status, Header: header, Body: []byte(body)}, nil
	}}
}

func (rt *recordingTransport) Send(ctx context.Context, req *Request) (*Response, error) {
	rt.mu.Lock()
	rt.reqs = append(rt.reqs, req)
	rt.mu.Unlock()
	return rt.respond(req)
}

func (rt *recordingTransport) calls() int {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return len(rt.reqs)
}

func (rt *recordingTransport) last() *Request {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if len(rt.reqs) == 0 {
		return nil
	}
	return rt.reqs[len(rt.reqs)-1]
}

// testDescription declares files.{list,get,insert,update,watch}, nested
// files.permissions.{get,insert} and a top-level batch method.
func testDescription() *Description {
	fileID := func() *Parameter {
		return &Parameter{Type: "string", Location: LocationPath, Required: true}
	}
	return &Description{
		Name:        "drive",
		Version:     "v2",
		RootURL:     "https://www.example.com/",
		ServicePath: "drive/v2/",
		Parameters: map[string]*Parameter{
			"key":    {Type: "string", Location: LocationQuery},
			"fields": {Type: "string", Location: LocationQuery},
		},
		Methods: map[string]*MethodSchema{
			"batch": {ID: "drive.batch", HTTPMethod: "POST", Path: "batch"},
		},
		Resources: map[string]*Resource{
			"files": {
				Methods: map[string]*MethodSchema{
					"list": {
						ID:         "drive.files.list",
						HTTPMethod: "GET",
						Path:       "files",
						Parameters: map[string]*Parameter{
							"q":          {Type: "string", Location: LocationQuery},
							"maxResults": {Type: "integer", Location: LocationQuery, Minimum: "0", Maximum: "1000"},
							"orderBy":    {Type: "string", Location: LocationQuery, Enum: []string{"createdDate", "modifiedDate", "title"}},
							"spaces":     {Type: "string", Location: LocationQuery, Repeated: true},
							"trashed":    {Type: "boolean", Location: LocationQuery},
							"corpus":     {Type: "string", Location: LocationQuery, Pattern: "^(DEFAULT|DOMAIN)$"},
						},
					},
					"get": {
						ID:             "drive.files.get",
						HTTPMethod:     "GET",
						Path:           "files/{fileId}",
						Parameters:     map[string]*Parameter{"fileId": fileID()},
						ParameterOrder: []string{"fileId"},
					},
					"insert": {
						ID:                  "drive.files.insert",
						HTTPMethod:          "POST",
						Path:                "files",
						SupportsMediaUpload: true,
						MediaUpload: &MediaUpload{Protocols: &MediaProtocols{
							Simple: &MediaProtocol{Multipart: true, Path: "/upload/drive/v2/files"},
						}},
					},
					"update": {
						ID:         "drive.files.update",
						HTTPMethod: "put",
						Path:       "files/{fileId}",
						Parameters: map[string]*Parameter{
							"fileId":  fileID(),
							"pinned":  {Type: "boolean", Location: LocationQuery},
							"starred": {Type: "boolean", Location: LocationBody},
						},
						ParameterOrder: []string{"fileId"},
					},
					"watch": {
						ID:         "drive.files.watch",
						HTTPMethod: "GET",
						Path:       "files/{+name}:watch",
						Parameters: map[string]*Parameter{"name": {Type: "string", Location: LocationPath, Required: true}},
					},
				},
				Resources: map[string]*Resource{
					"permissions": {
						Methods: map[string]*MethodSchema{
							"get": {
								ID:         "drive.permissions.get",
								HTTPMethod: "GET",
								Path:       "files/{fileId}/permissions/{permissionId}",
								Parameters: map[string]*Parameter{
									"fileId":       fileID(),
									"permissionId": fileID(),
								},
								ParameterOrder: []string{"fileId", "permissionId"},
							},
							"insert": {
								ID:         "drive.permissions.insert",
								HTTPMethod: "POST",
								Path:       "files/{fileId}/permissions",
								Parameters: map[string]*Parameter{"fileId": fileID()},
							},
						},
					},
				},
			},
		},
	}
}

func newTestClient(t *testing.T, transport Transport, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{WithTransport(transport)}, opts...)
	c, err := New(testDescription(), opts...)
	if err != nil {
		t.Fatalf("unexpected build error: %v", err)
	}
	return c
}

func mustMethod(t *testing.T, c *Client, path string) *Method {
	t.Helper()
	n, ok := c.Lookup(path)
	if !ok {
		t.Fatalf("method %s not found", path)
	}
	m, ok := n.(*Method)
	if !ok {
		t.Fatalf("%s is a %s, not a method", path, n.Kind())
	}
	return m
}
