package protocol

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewEnvelopeWithoutFile(t *testing.T) {
	env := NewEnvelope("hello", nil)

	data, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	want := `{"text":"hello","fileData":null,"filename":null,"fileType":null,"fileSize":null}`
	if string(data) != want {
		t.Errorf("frame = %s, want %s", data, want)
	}
}

func TestNewEnvelopeWithFile(t *testing.T) {
	att := &Attachment{
		Name: "notes.txt",
		Type: "text/plain",
		Size: 2,
		Data: []byte("hi"),
	}
	env := NewEnvelope("see attached", att)

	if env.FileData == nil {
		t.Fatal("FileData = nil, want data URL")
	}
	if !strings.HasPrefix(*env.FileData, "data:text/plain;base64,") {
		t.Errorf("FileData = %q, want data URL prefix", *env.FileData)
	}
	if *env.Filename != "notes.txt" || *env.FileType != "text/plain" || *env.FileSize != 2 {
		t.Errorf("metadata = %q/%q/%d, want notes.txt/text/plain/2", *env.Filename, *env.FileType, *env.FileSize)
	}
}

func TestLoadAttachment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lesson.txt")
	if err := os.WriteFile(path, []byte("chapter one"), 0600); err != nil {
		t.Fatal(err)
	}

	att, err := LoadAttachment(path)
	if err != nil {
		t.Fatalf("LoadAttachment: %v", err)
	}
	if att.Name != "lesson.txt" || att.Type != "text/plain" || att.Size != 11 {
		t.Errorf("attachment = %q/%q/%d, want lesson.txt/text/plain/11", att.Name, att.Type, att.Size)
	}
}

func TestLoadAttachmentRejectsUnknownType(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "payload.exe")
	if err := os.WriteFile(path, []byte("nope"), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadAttachment(path); !errors.Is(err, ErrFileType) {
		t.Errorf("err = %v, want ErrFileType", err)
	}
}

func TestLoadAttachmentRejectsOversize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "big.txt")
	if err := os.WriteFile(path, make([]byte, MaxUploadBytes+1), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadAttachment(path); !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("err = %v, want ErrFileTooLarge", err)
	}
}
