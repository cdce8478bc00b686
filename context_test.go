package disco

import (
	"context"
	"testing"
)

func TestCallInfoFromContext(t *testing.T) {
	t.Run("with call info", func(t *testing.T) {
		ctx := NewCallContext(context.Background(), "drive", "files.list")

		info, ok := CallInfoFromContext(ctx)
		if !ok {
			t.Fatal("expected call info in context")
		}
		if info.Service != "drive" || info.Method != "files.list" {
			t.Errorf("unexpected info %+v", info)
		}
		if info.Endpoint() != "drive.files.list" {
			t.Errorf("expected endpoint drive.files.list, got %s", info.Endpoint())
		}
		if info.ID != "drive.files.list" {
			t.Errorf("expected id drive.files.list, got %s", info.ID)
		}
	})

	t.Run("without call info", func(t *testing.T) {
		info, ok := CallInfoFromContext(context.Background())
		if ok || info != nil {
			t.Error("expected no call info")
		}
	})

	t.Run("unnamed service", func(t *testing.T) {
		info, _ := CallInfoFromContext(NewCallContext(context.Background(), "", "about.get"))
		if info.Endpoint() != "about.get" {
			t.Errorf("expected endpoint about.get, got %s", info.Endpoint())
		}
	})
}
