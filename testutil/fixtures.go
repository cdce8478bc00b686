package testutil

import "github.com/broady/disco"

// DriveDescription returns a small description modelled on Drive v2: files
// with list, get, insert, update and delete, nested permissions, and a
// top-level about.get. Each call returns a fresh value.
func DriveDescription() *disco.Description {
	fileID := func() *disco.Parameter {
		return &disco.Parameter{Type: "string", Location: disco.LocationPath, Required: true}
	}
	upload := func(path string) *disco.MediaUpload {
		return &disco.MediaUpload{
			Accept:  []string{"*/*"},
			MaxSize: "5120GB",
			Protocols: &disco.MediaProtocols{
				Simple: &disco.MediaProtocol{Multipart: true, Path: path},
			},
		}
	}

	return &disco.Description{
		Kind:        "discovery#restDescription",
		ID:          "drive:v2",
		Name:        "drive",
		Version:     "v2",
		Title:       "Drive API",
		RootURL:     "https://www.googleapis.com/",
		ServicePath: "drive/v2/",
		Parameters: map[string]*disco.Parameter{
			"key":         {Type: "string", Location: disco.LocationQuery},
			"fields":      {Type: "string", Location: disco.LocationQuery},
			"prettyPrint": {Type: "boolean", Location: disco.LocationQuery, Default: "true"},
			"alt":         {Type: "string", Location: disco.LocationQuery, Enum: []string{"json", "media"}, Default: "json"},
		},
		Resources: map[string]*disco.Resource{
			"files": {
				Methods: map[string]*disco.MethodSchema{
					"list": {
						ID:         "drive.files.list",
						HTTPMethod: "GET",
						Path:       "files",
						Parameters: map[string]*disco.Parameter{
							"q":          {Type: "string", Location: disco.LocationQuery},
							"maxResults": {Type: "integer", Format: "int32", Location: disco.LocationQuery, Minimum: "0", Default: "100"},
							"pageToken":  {Type: "string", Location: disco.LocationQuery},
							"corpora":    {Type: "string", Location: disco.LocationQuery, Enum: []string{"default", "domain", "user"}},
							"spaces":     {Type: "string", Location: disco.LocationQuery, Repeated: true},
						},
						Response: &disco.SchemaRef{Ref: "FileList"},
					},
					"get": {
						ID:             "drive.files.get",
						HTTPMethod:     "GET",
						Path:           "files/{fileId}",
						Parameters:     map[string]*disco.Parameter{"fileId": fileID()},
						ParameterOrder: []string{"fileId"},
						Response:       &disco.SchemaRef{Ref: "File"},
					},
					"insert": {
						ID:                  "drive.files.insert",
						HTTPMethod:          "POST",
						Path:                "files",
						Parameters:          map[string]*disco.Parameter{"convert": {Type: "boolean", Location: disco.LocationQuery, Default: "false"}},
						Request:             &disco.SchemaRef{Ref: "File"},
						Response:            &disco.SchemaRef{Ref: "File"},
						SupportsMediaUpload: true,
						MediaUpload:         upload("/upload/drive/v2/files"),
					},
					"update": {
						ID:                  "drive.files.update",
						HTTPMethod:          "PUT",
						Path:                "files/{fileId}",
						Parameters:          map[string]*disco.Parameter{"fileId": fileID()},
						ParameterOrder:      []string{"fileId"},
						Request:             &disco.SchemaRef{Ref: "File"},
						Response:            &disco.SchemaRef{Ref: "File"},
						SupportsMediaUpload: true,
						MediaUpload:         upload("/upload/drive/v2/files/{fileId}"),
					},
					"delete": {
						ID:             "drive.files.delete",
						HTTPMethod:     "DELETE",
						Path:           "files/{fileId}",
						Parameters:     map[string]*disco.Parameter{"fileId": fileID()},
						ParameterOrder: []string{"fileId"},
					},
				},
				Resources: map[string]*disco.Resource{
					"permissions": {
						Methods: map[string]*disco.MethodSchema{
							"list": {
								ID:             "drive.permissions.list",
								HTTPMethod:     "GET",
								Path:           "files/{fileId}/permissions",
								Parameters:     map[string]*disco.Parameter{"fileId": fileID()},
								ParameterOrder: []string{"fileId"},
							},
							"insert": {
								ID:         "drive.permissions.insert",
								HTTPMethod: "POST",
								Path:       "files/{fileId}/permissions",
								Parameters: map[string]*disco.Parameter{
									"fileId":           fileID(),
									"sendNotification": {Type: "boolean", Location: disco.LocationQuery},
								},
								ParameterOrder: []string{"fileId"},
								Request:        &disco.SchemaRef{Ref: "Permission"},
							},
						},
					},
				},
			},
			"about": {
				Methods: map[string]*disco.MethodSchema{
					"get": {
						ID:         "drive.about.get",
						HTTPMethod: "GET",
						Path:       "about",
						Response:   &disco.SchemaRef{Ref: "About"},
					},
				},
			},
		},
	}
}
