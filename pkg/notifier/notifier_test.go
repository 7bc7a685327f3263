package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/paulstuart/gollm/relnotify/pkg/model"
	"github.com/paulstuart/gollm/relnotify/pkg/profile"
)

func lines(n int) string {
	out := make([]string, n)
	for i := range out {
		out[i] = "item"
	}
	return strings.Join(out, "\n")
}

func TestBuildPayloadFiltersLongSections(t *testing.T) {
	t.Parallel()
	rel := model.Release{
		Title: "2024.1",
		Sections: []model.Section{
			{Title: "ADD", Notes: lines(9)},
			{Title: "CHANGE", Notes: lines(10)},
			{Title: "FIX", Notes: "one"},
			{Title: "", Notes: ""},
			{Title: "MISC", Notes: lines(25)},
		},
	}
	p := BuildPayload("releases", profile.Sora(), rel)

	if p.Channel != "#releases" {
		t.Fatalf("channel = %q", p.Channel)
	}
	if len(p.Attachments) != 1 {
		t.Fatalf("expected one attachment, got %d", len(p.Attachments))
	}
	a := p.Attachments[0]
	if a.Fallback != "Sora v2024.1 released" {
		t.Fatalf("fallback = %q", a.Fallback)
	}
	if a.Text != "<https://sora.shiguredo.jp/doc/RELEASE_NOTE.html|Sora v2024.1 released>" {
		t.Fatalf("text = %q", a.Text)
	}
	if a.Color != Color {
		t.Fatalf("color = %q", a.Color)
	}
	if len(a.Fields) != 2 || a.Fields[0].Title != "ADD" || a.Fields[1].Title != "FIX" {
		t.Fatalf("unexpected fields %+v", a.Fields)
	}
}

func TestBuildPayloadNoSectionsEncodesEmptyFields(t *testing.T) {
	t.Parallel()
	b, err := json.Marshal(BuildPayload("#dev", profile.SoraJS(), model.Release{Title: "2022.1.0"}))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(b), `"fields":[]`) || !strings.Contains(string(b), `"channel":"#dev"`) {
		t.Fatalf("unexpected payload %s", b)
	}
}

func TestChannelName(t *testing.T) {
	t.Parallel()
	tests := map[string]string{"dev": "#dev", "#dev": "#dev", " dev ": "#dev", "": ""}
	for in, want := range tests {
		if got := ChannelName(in); got != want {
			t.Fatalf("ChannelName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSlackNotifyPostsPayload(t *testing.T) {
	var (
		gotPath string
		gotType string
		got     Payload
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotType = r.Header.Get("Content-Type")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	s, err := NewSlack(SlackConfig{Token: "T000/B000/XXX", Channel: "release", BaseURL: srv.URL + "/services/"})
	if err != nil {
		t.Fatalf("NewSlack error: %v", err)
	}
	rel := model.Release{Title: "2024.1", Sections: []model.Section{{Title: "ADD", Notes: "x"}}}
	if err := s.Notify(context.Background(), profile.Sora(), rel); err != nil {
		t.Fatalf("Notify error: %v", err)
	}
	if gotPath != "/services/T000/B000/XXX" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotType != "application/json" {
		t.Fatalf("content type = %q", gotType)
	}
	if got.Channel != "#release" || len(got.Attachments) != 1 || got.Attachments[0].Fields[0].Value != "x" {
		t.Fatalf("unexpected payload %+v", got)
	}
}

func TestSlackNotifyStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid_token", http.StatusForbidden)
	}))
	defer srv.Close()

	s, err := NewSlack(SlackConfig{Token: "bad", Channel: "c", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewSlack error: %v", err)
	}
	err = s.Notify(context.Background(), profile.Sora(), model.Release{Title: "2024.1"})
	var de *DeliveryError
	if !errors.As(err, &de) {
		t.Fatalf("expected *DeliveryError, got %v", err)
	}
	if de.StatusCode != http.StatusForbidden || de.Body != "invalid_token" || de.Source != "sora" {
		t.Fatalf("unexpected delivery error %+v", de)
	}
}

func TestNewSlackRequiresSettings(t *testing.T) {
	t.Parallel()
	if _, err := NewSlack(SlackConfig{Channel: "c"}); err == nil {
		t.Fatal("expected error without token")
	}
	if _, err := NewSlack(SlackConfig{Token: "t"}); err == nil {
		t.Fatal("expected error without channel")
	}
}

func TestWriterPrintsPayload(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	w := NewWriter(&buf, "dev")
	if err := w.Notify(context.Background(), profile.SoraJS(), model.Release{Title: "2022.2.0"}); err != nil {
		t.Fatalf("Notify error: %v", err)
	}
	var p Payload
	if err := json.Unmarshal(buf.Bytes(), &p); err != nil {
		t.Fatalf("output is not a payload: %v\n%s", err, buf.String())
	}
	if p.Attachments[0].Fallback != "Sora JavaScript SDK v2022.2.0 released" {
		t.Fatalf("fallback = %q", p.Attachments[0].Fallback)
	}
}
