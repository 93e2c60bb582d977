// ABOUTME: Contract tests for the JSON surface to detect breaking API changes.
// ABOUTME: Validates that response and request types keep their wire field names.

package contract

import (
	"reflect"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/2389/second-brain/internal/aggregate"
	"github.com/2389/second-brain/internal/capture"
	"github.com/2389/second-brain/internal/server"
	"github.com/2389/second-brain/internal/status"
	"github.com/2389/second-brain/internal/store"
)

// expectedFields defines the contract for our JSON API surface.
// Removing or renaming any of these breaks existing clients.
var expectedFields = map[string]struct {
	typ    any
	fields []string
}{
	"Task": {store.Task{}, []string{
		"id", "title", "description", "status", "priority",
		"dueDate", "category", "tags", "createdAt", "updatedAt",
	}},
	"Note": {store.Note{}, []string{
		"id", "title", "content", "category", "tags", "createdAt", "updatedAt",
	}},
	"Conversation": {store.Conversation{}, []string{
		"id", "title", "participants", "summary", "decisions",
		"linkedTasks", "date", "createdAt", "updatedAt",
	}},
	"Credential": {store.Credential{}, []string{
		"id", "service", "username", "password", "url", "notes", "createdAt",
	}},
	"SearchResult": {aggregate.SearchResult{}, []string{
		"tasks", "notes", "conversations", "credentials",
	}},
	"ContextView": {aggregate.ContextView{}, []string{
		"status", "summary", "activeTasks", "criticalTasks",
		"recentTasks", "recentNotes", "lastUpdated",
	}},
	"Counts": {aggregate.Counts{}, []string{
		"totalTasks", "activeTasks", "criticalTasks", "totalNotes",
	}},
	"CaptureRequest": {capture.Request{}, []string{
		"text", "type", "source", "title", "metadata",
	}},
	"CaptureResult": {capture.Result{}, []string{
		"success", "id", "type", "message",
	}},
	"CaptureRecord": {capture.Record{}, []string{
		"id", "title", "content", "type", "metadata", "createdAt",
	}},
	"Status": {status.Status{}, []string{
		"status", "lastUpdated", "currentTask",
	}},
	"StatusRequest": {server.StatusRequest{}, []string{
		"status", "currentTask",
	}},
}

// jsonFields returns the wire names of a struct's fields, flattening
// embedded structs the way encoding/json does.
func jsonFields(t reflect.Type) []string {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	var names []string
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag := f.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name, _, _ := strings.Cut(tag, ",")
		if f.Anonymous && name == "" {
			names = append(names, jsonFields(f.Type)...)
			continue
		}
		if !f.IsExported() {
			continue
		}
		if name == "" {
			name = f.Name
		}
		names = append(names, name)
	}
	return names
}

// TestJSONSurface verifies that every expected field is still on the wire.
func TestJSONSurface(t *testing.T) {
	for name, expected := range expectedFields {
		t.Run(name, func(t *testing.T) {
			actual := jsonFields(reflect.TypeOf(expected.typ))

			for _, f := range expected.fields {
				assert.True(t, slices.Contains(actual, f), "field %s.%s should exist", name, f)
			}
			for _, f := range actual {
				if !slices.Contains(expected.fields, f) {
					t.Logf("INFO: extra field %s.%s not in contract (consider adding)", name, f)
				}
			}
		})
	}
}

// TestStatusResponseFlattensStatus checks that POST /status replies with the
// status document fields alongside the message.
func TestStatusResponseFlattensStatus(t *testing.T) {
	fields := jsonFields(reflect.TypeOf(server.StatusResponse{}))
	assert.ElementsMatch(t, []string{"status", "lastUpdated", "currentTask", "message"}, fields)
}
