package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/broady/disco"
)

type CallCmd struct {
	Method  string            `arg:"" help:"Dotted method path, e.g. files.list."`
	Params  []string          `help:"Parameter as name=value. Repeat a name to send several values." short:"p" name:"param" sep:"none"`
	Body    string            `help:"JSON request body, or @file to read it from a file."`
	Headers map[string]string `help:"Extra request header as name=value." short:"H" name:"header"`
	Raw     bool              `help:"Print the raw response body instead of indented JSON."`
}

func (c *CallCmd) Run(g *Globals, out io.Writer, stderr *stderrWriter) error {
	ctx := context.Background()
	client, err := g.client(ctx, g.logger(stderr))
	if err != nil {
		return err
	}
	node, ok := client.Lookup(c.Method)
	m, isMethod := node.(*disco.Method)
	if !ok || !isMethod {
		return fmt.Errorf("no method %q in %s %s", c.Method, client.Name(), client.Version())
	}

	params, err := parseParams(c.Params)
	if err != nil {
		return err
	}
	if c.Body != "" {
		resource, err := readBody(c.Body)
		if err != nil {
			return err
		}
		params[disco.ParamResource] = resource
	}

	var opts []disco.CallOption
	for k, v := range c.Headers {
		opts = append(opts, disco.CallHeader(k, v))
	}

	res, err := m.Do(ctx, params, opts...)
	if err != nil {
		var f *disco.Failure
		if errors.As(err, &f) && f.Response != nil && len(f.Response.Body) > 0 {
			fmt.Fprintln(stderr, strings.TrimSpace(string(f.Response.Body)))
		}
		return err
	}
	return printResult(out, res, c.Raw)
}

// parseParams turns name=value pairs into call parameters.
func parseParams(pairs []string) (disco.Params, error) {
	params := disco.Params{}
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid parameter %q: expected name=value", pair)
		}
		switch prev := params[name].(type) {
		case nil:
			params[name] = value
		case []any:
			params[name] = append(prev, value)
		default:
			params[name] = []any{prev, value}
		}
	}
	return params, nil
}

func readBody(arg string) (any, error) {
	data := []byte(arg)
	if path, ok := strings.CutPrefix(arg, "@"); ok {
		var err error
		if data, err = os.ReadFile(path); err != nil {
			return nil, err
		}
	}
	var body any
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, fmt.Errorf("invalid body: %w", err)
	}
	return body, nil
}

func printResult(out io.Writer, res *disco.Success, raw bool) error {
	if raw || res.Payload == nil {
		_, err := out.Write(res.Body)
		return err
	}
	if s, ok := res.Payload.(string); ok {
		_, err := fmt.Fprintln(out, s)
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(res.Payload)
}
