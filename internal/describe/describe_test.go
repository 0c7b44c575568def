package describe

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dgallion1/matclass/internal/llm"
	"github.com/dgallion1/matclass/internal/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type visionStub struct {
	got  llm.Request
	text string
	err  error
}

func (v *visionStub) Complete(_ context.Context, req llm.Request) (llm.Completion, error) {
	v.got = req
	return llm.Completion{Text: v.text}, v.err
}

func TestDescribeDocument(t *testing.T) {
	d := New(nil, parser.Options{}, 0, nil)
	res, err := d.Describe(context.Background(), "ficha.md", "", []byte("# Luva\n\nVaqueta, punho 7cm."), "")
	require.NoError(t, err)
	assert.Equal(t, "document", res.Source)
	assert.Equal(t, "Luva\n\nVaqueta, punho 7cm.", res.Text)
	assert.False(t, res.Truncated)
}

func TestDescribeTruncatesToBudget(t *testing.T) {
	d := New(nil, parser.Options{}, 10, nil)
	res, err := d.Describe(context.Background(), "longo.txt", "text/plain", []byte(strings.Repeat("parafuso ", 50)), "")
	require.NoError(t, err)
	assert.True(t, res.Truncated)
	assert.Len(t, strings.Fields(res.Text), 7)
}

func TestDescribeImageUsesVisionModel(t *testing.T) {
	stub := &visionStub{text: "  Capacete de segurança classe B, cor branca.  "}
	d := New(stub, parser.Options{}, 0, nil)

	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	res, err := d.Describe(context.Background(), "foto", "", png, "google/gemini-3-flash-preview")
	require.NoError(t, err)
	assert.Equal(t, "image", res.Source)
	assert.Equal(t, "Capacete de segurança classe B, cor branca.", res.Text)
	require.NotNil(t, stub.got.Image)
	assert.Equal(t, "image/png", stub.got.Image.MIME)
	assert.Equal(t, "google/gemini-3-flash-preview", stub.got.Model)
}

func TestDescribeImageByExtension(t *testing.T) {
	stub := &visionStub{text: "Luva"}
	d := New(stub, parser.Options{}, 0, nil)
	_, err := d.Describe(context.Background(), "foto.JPG", "application/octet-stream", []byte{0xff, 0xd8, 0xff}, "m")
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", stub.got.Image.MIME)
}

func TestDescribeErrors(t *testing.T) {
	d := New(&visionStub{err: errors.New("boom")}, parser.Options{}, 0, nil)

	_, err := d.Describe(context.Background(), "dados.bin", "application/zip", []byte("PK\x03\x04"), "")
	assert.ErrorIs(t, err, ErrUnsupported)

	_, err = d.Describe(context.Background(), "vazio.txt", "text/plain", []byte("\n\n  \n"), "")
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = d.Describe(context.Background(), "x.png", "image/png", []byte{1}, "m")
	assert.ErrorContains(t, err, "boom")

	_, err = New(nil, parser.Options{}, 0, nil).Describe(context.Background(), "x.png", "image/png", []byte{1}, "m")
	assert.ErrorIs(t, err, ErrUnsupported)
}
