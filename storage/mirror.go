package storage

import (
	"context"
	"errors"
	"io"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	storagetypes "gomod.pri/spellkit/storage/types"
	"gomod.pri/spellkit/xerror"
	"gomod.pri/spellkit/xtrace"
)

const DefaultDictionaryKey = "dictionary/custom.dic"

// Mirror keeps a remote copy of the custom dictionary under a single key.
type Mirror struct {
	store Storage
	key   string
}

func NewMirror(store Storage, key string) *Mirror {
	if key == "" {
		key = DefaultDictionaryKey
	}
	return &Mirror{store: store, key: key}
}

func (m *Mirror) Key() string {
	return m.key
}

// Push uploads content as the remote dictionary.
func (m *Mirror) Push(ctx context.Context, content string) (err error) {
	ctx, span := xtrace.Start(ctx, "storage.Mirror.Push",
		attribute.String("storage.key", m.key),
		attribute.Int("dictionary.bytes", len(content)),
	)
	defer func() { xtrace.End(span, err) }()

	return m.store.UploadStream(ctx, m.key, strings.NewReader(content))
}

// Pull downloads the remote dictionary.
func (m *Mirror) Pull(ctx context.Context) (content string, err error) {
	ctx, span := xtrace.Start(ctx, "storage.Mirror.Pull", attribute.String("storage.key", m.key))
	defer func() { xtrace.End(span, err) }()

	body, err := m.store.DownloadStream(ctx, m.key)
	if errors.Is(err, storagetypes.ErrObjectNotFound) {
		return "", xerror.New(xerror.CodeDataNotExist, err)
	}
	if err != nil {
		return "", err
	}
	defer func() {
		if cerr := body.Close(); cerr != nil {
			xerror.RaiseCtx(ctx, xerror.CodeResourceRelease, cerr, m.key)
		}
	}()

	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
