// Package backup dumps and restores the sealed records of a namespace.
// Values are copied as stored, they are never opened.
package backup

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/mdouchement/todokernel/internal/database"
	"github.com/pkg/errors"
	"github.com/ugorji/go/codec"
)

// Version is the archive format version.
const Version = 1

// Supported archive formats.
const (
	CBOR = "cbor"
	Binc = "binc"
)

// An Archive is the content of a backup file.
type Archive struct {
	Version   int     `codec:"version"`
	Namespace string  `codec:"namespace"`
	CreatedAt int64   `codec:"created_at"`
	Entries   []Entry `codec:"entries"`
}

// An Entry is one stored key and its sealed value.
type Entry struct {
	Key   string `codec:"key"`
	Value []byte `codec:"value"`
}

func handle(format string) (codec.Handle, error) {
	switch strings.ToLower(format) {
	case "", CBOR:
		return &codec.CborHandle{}, nil
	case Binc:
		return &codec.BincHandle{}, nil
	}
	return nil, errors.Errorf("unsupported backup format %q", format)
}

// Dump writes every entry of the namespace to w.
func Dump(ctx context.Context, w io.Writer, walker database.Walker, namespace, format string) (Archive, error) {
	h, err := handle(format)
	if err != nil {
		return Archive{}, err
	}

	archive := Archive{
		Version:   Version,
		Namespace: strings.Trim(namespace, "/"),
		CreatedAt: time.Now().Unix(),
	}

	err = walker.Walk(ctx, archive.Namespace, func(key string, value []byte) error {
		archive.Entries = append(archive.Entries, Entry{Key: key, Value: value})
		return nil
	})
	if err != nil {
		return Archive{}, errors.Wrap(err, "could not walk database")
	}

	if err = codec.NewEncoder(w, h).Encode(archive); err != nil {
		return Archive{}, errors.Wrap(err, "could not encode archive")
	}
	return archive, nil
}

// Load reads an archive of the given namespace from r and puts its entries into kv.
// Existing keys are overwritten, other keys are left untouched.
func Load(ctx context.Context, r io.Reader, kv database.KeyValueStore, namespace, format string) (Archive, error) {
	h, err := handle(format)
	if err != nil {
		return Archive{}, err
	}

	var archive Archive
	if err = codec.NewDecoder(r, h).Decode(&archive); err != nil {
		return Archive{}, errors.Wrap(err, "could not decode archive")
	}

	if archive.Version != Version {
		return Archive{}, errors.Errorf("unsupported archive version %d", archive.Version)
	}

	if ns := strings.Trim(namespace, "/"); archive.Namespace != ns {
		return Archive{}, errors.Errorf("archive namespace %q does not match %q", archive.Namespace, ns)
	}

	prefix := "/" + archive.Namespace + "/"
	for _, entry := range archive.Entries {
		if err = ctx.Err(); err != nil {
			return Archive{}, err
		}

		if !strings.HasPrefix(entry.Key, prefix) {
			return Archive{}, errors.Errorf("entry %q is outside of namespace %q", entry.Key, archive.Namespace)
		}

		if err = kv.Put(ctx, entry.Key, entry.Value); err != nil {
			return Archive{}, errors.Wrapf(err, "could not restore %s", entry.Key)
		}
	}

	return archive, nil
}
