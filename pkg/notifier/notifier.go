// Package notifier turns release records into chat messages and delivers them.
package notifier

import (
	"context"
	"fmt"
	"strings"

	"github.com/paulstuart/gollm/relnotify/pkg/model"
	"github.com/paulstuart/gollm/relnotify/pkg/profile"
)

const (
	// Color is the attachment bar color of every release message.
	Color = "#95D8EB"
	// MaxFieldLines drops sections whose notes reach this many lines.
	MaxFieldLines = 10
)

// Notifier delivers one message per release.
type Notifier interface {
	Notify(ctx context.Context, p profile.Profile, r model.Release) error
}

// Payload is the incoming-webhook message body.
type Payload struct {
	Channel     string       `json:"channel"`
	Attachments []Attachment `json:"attachments"`
}

// Attachment is one coloured block of a message; relnotify sends exactly one.
type Attachment struct {
	Fallback string  `json:"fallback"`
	Text     string  `json:"text"`
	Color    string  `json:"color"`
	Fields   []Field `json:"fields"`
}

// Field is a titled entry inside an attachment, one per release section.
type Field struct {
	Title string `json:"title"`
	Value string `json:"value"`
}

// BuildPayload renders a release as a single-attachment message.
//
// Sections whose notes span MaxFieldLines lines or more are left out rather
// than truncated, as are sections with neither title nor notes.
func BuildPayload(channel string, p profile.Profile, r model.Release) Payload {
	headline := fmt.Sprintf("%s v%s released", p.DisplayName(), r.Title)

	fields := []Field{}
	for _, sec := range r.Sections {
		if sec.Title == "" && sec.Notes == "" {
			continue
		}
		if len(strings.Split(sec.Notes, "\n")) >= MaxFieldLines {
			continue
		}
		fields = append(fields, Field{Title: sec.Title, Value: sec.Notes})
	}

	return Payload{
		Channel: ChannelName(channel),
		Attachments: []Attachment{{
			Fallback: headline,
			Text:     fmt.Sprintf("<%s|%s>", p.URL, headline),
			Color:    Color,
			Fields:   fields,
		}},
	}
}

// ChannelName prefixes a bare channel name with "#".
func ChannelName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" || strings.HasPrefix(name, "#") {
		return name
	}
	return "#" + name
}
