package main

import (
	"testing"

	"github.com/jo-hoe/lovenotes/internal/core"
)

type uploadFields struct {
	Caption  string `validate:"required"`
	Category string `validate:"required,category"`
}

func TestDefineServer_ValidatorKnowsAlbumTags(t *testing.T) {
	cfg := &core.ServiceConfig{ImagesDir: t.TempDir()}
	cfg.ApplyDefaults()
	e := defineServer(cfg)

	if e.Validator == nil {
		t.Fatal("expected server to carry a validator")
	}
	if err := e.Validator.Validate(uploadFields{Caption: "c", Category: "Travel"}); err != nil {
		t.Fatalf("expected valid category to pass, got %v", err)
	}
	if err := e.Validator.Validate(uploadFields{Caption: "c", Category: "Work"}); err == nil {
		t.Fatal("expected unknown category to be rejected")
	}
}
