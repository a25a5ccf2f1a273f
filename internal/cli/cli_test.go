package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rotisserie/eris"

	"staticcms/app/internal/codec"
	"staticcms/app/internal/resolver"
	"staticcms/app/internal/site"
)

const duplicateDoc = `site:
  title: "Dup"
  description: "Two homes"
pages:
  - slug: "home"
    title: "First"
    template: "home"
  - slug: "home"
    title: "Second"
    template: "home"
`

const article = `---
title: "Deploying the CMS"
description: "Ship it"
author: "Ops"
date: "2024-03-01"
readTime: 4
tags: [ops, deploy]
---

## Steps

Build and copy the binary.
`

func TestValidateAcceptsDefaultDocument(t *testing.T) {
	t.Parallel()

	path := writeDefault(t)
	out, err := run(t, "validate", path)
	if err != nil {
		t.Fatalf("validate returned error: %v", err)
	}
	if !strings.Contains(out, "ok (4 pages)") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestValidateRejectsDuplicateSlugsUnlessLenient(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "site-data.yaml", duplicateDoc)

	_, err := run(t, "validate", path)
	if !eris.Is(err, site.ErrDuplicateSlug) {
		t.Fatalf("expected duplicate slug error, got %v", err)
	}

	if _, err := run(t, "--strict=false", "validate", path); err != nil {
		t.Fatalf("lenient validate returned error: %v", err)
	}
}

func TestValidateHonoursConfigFile(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "site-data.yaml", duplicateDoc)
	cfg := writeFile(t, "cmsctl.yaml", "strict: false\n")

	if _, err := run(t, "--config", cfg, "validate", path); err != nil {
		t.Fatalf("validate with lenient config returned error: %v", err)
	}
}

func TestValidateReportsMalformedDocument(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "site-data.yaml", "site: [unclosed\n")
	if _, err := run(t, "validate", path); !eris.Is(err, codec.ErrMalformedDocument) {
		t.Fatalf("expected malformed document error, got %v", err)
	}
}

func TestFmtPrintsCanonicalEncoding(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "site-data.yaml", "site: {title: T, description: D}\npages:\n  - {slug: home, title: Home, template: home}\n")

	out, err := run(t, "fmt", path)
	if err != nil {
		t.Fatalf("fmt returned error: %v", err)
	}

	doc, err := codec.DecodeString(out)
	if err != nil {
		t.Fatalf("fmt output does not decode: %v", err)
	}
	if out != codec.EncodeString(doc) {
		t.Fatalf("fmt output is not canonical:\n%s", out)
	}

	original, _ := os.ReadFile(path)
	if string(original) == out {
		t.Fatalf("fmt without --write must not change the file")
	}
}

func TestFmtWriteRewritesFile(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "site-data.yaml", "site: {title: T, description: D}\npages: []\n")

	if _, err := run(t, "fmt", "--write", path); err != nil {
		t.Fatalf("fmt --write returned error: %v", err)
	}

	rewritten, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading rewritten file failed: %v", err)
	}
	doc, err := codec.Decode(rewritten)
	if err != nil {
		t.Fatalf("rewritten file does not decode: %v", err)
	}
	if string(rewritten) != codec.EncodeString(doc) {
		t.Fatalf("rewritten file is not canonical:\n%s", rewritten)
	}
}

func TestResolvePrintsMatchedEntry(t *testing.T) {
	t.Parallel()

	path := writeDefault(t)
	out, err := run(t, "resolve", path, "/blog/best-practices")
	if err != nil {
		t.Fatalf("resolve returned error: %v", err)
	}
	if out != "detail\tbest-practices\tBest Practices for Content Management\n" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestResolveUnknownPathFails(t *testing.T) {
	t.Parallel()

	path := writeDefault(t)
	if _, err := run(t, "resolve", path, "/blog/missing"); !eris.Is(err, resolver.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestImportAppendsDetailEntry(t *testing.T) {
	t.Parallel()

	docPath := writeDefault(t)
	mdPath := writeFile(t, "deploying.md", article)

	out, err := run(t, "import", docPath, mdPath, "--category", "guides")
	if err != nil {
		t.Fatalf("import returned error: %v", err)
	}
	if !strings.Contains(out, "imported /guides/deploying") {
		t.Fatalf("unexpected output %q", out)
	}

	text, _ := os.ReadFile(docPath)
	doc, err := codec.Decode(text)
	if err != nil {
		t.Fatalf("imported document does not decode: %v", err)
	}

	entry, err := resolver.Resolve(doc, "/guides/deploying")
	if err != nil {
		t.Fatalf("imported entry not resolvable: %v", err)
	}
	if entry.Title != "Deploying the CMS" || entry.Author == nil || *entry.Author != "Ops" {
		t.Fatalf("unexpected entry %+v", entry)
	}
	if entry.PublishDate == nil || *entry.PublishDate != "2024-03-01" {
		t.Fatalf("unexpected publish date %v", entry.PublishDate)
	}
	if entry.ReadTime == nil || *entry.ReadTime != 4 {
		t.Fatalf("unexpected read time %v", entry.ReadTime)
	}
	if len(entry.Tags) != 2 || entry.Tags[1] != "deploy" {
		t.Fatalf("unexpected tags %v", entry.Tags)
	}
	if entry.Content == nil || !strings.HasPrefix(*entry.Content, "## Steps") {
		t.Fatalf("unexpected content %v", entry.Content)
	}
}

func TestImportRejectsCollidingSlug(t *testing.T) {
	t.Parallel()

	docPath := writeDefault(t)
	mdPath := writeFile(t, "getting-started.md", article)
	before, _ := os.ReadFile(docPath)

	_, err := run(t, "import", docPath, mdPath, "--category", "blog")
	if !eris.Is(err, site.ErrDuplicateSlug) {
		t.Fatalf("expected duplicate slug error, got %v", err)
	}

	after, _ := os.ReadFile(docPath)
	if !bytes.Equal(before, after) {
		t.Fatalf("rejected import must leave the document untouched")
	}
}

func TestImportRequiresCategory(t *testing.T) {
	t.Parallel()

	docPath := writeDefault(t)
	mdPath := writeFile(t, "post.md", article)

	if _, err := run(t, "import", docPath, mdPath); err == nil {
		t.Fatalf("expected error without --category")
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out, errOut bytes.Buffer
	cmd := NewRootCommand(&out, &errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeDefault(t *testing.T) string {
	t.Helper()
	return writeFile(t, "site-data.yaml", codec.EncodeString(site.Default()))
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s failed: %v", name, err)
	}
	return path
}
