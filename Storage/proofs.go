// Package Storage keeps the screenshot proofs attached to task claims.
package Storage

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

const (
	proofDir      = "proofs"
	MaxProofBytes = 10 << 20
)

var (
	ErrNotImage     = errors.New("screenshot must be a PNG, JPEG, GIF, BMP or TIFF image")
	ErrProofTooBig  = fmt.Errorf("screenshot must be smaller than %d MB", MaxProofBytes>>20)
	ErrInvalidProof = errors.New("invalid screenshot reference")
)

type ProofStore struct {
	Root     string
	MaxWidth int
	Now      func() time.Time
}

func NewProofStore(root string, maxWidth int) *ProofStore {
	return &ProofStore{Root: root, MaxWidth: maxWidth, Now: time.Now}
}

// Save re-encodes the image as JPEG under proofs/YYYY/MM/ and returns the
// slash-separated reference relative to Root.
func (s *ProofStore) Save(r io.Reader) (string, error) {
	raw, err := io.ReadAll(io.LimitReader(r, MaxProofBytes+1))
	if err != nil {
		return "", fmt.Errorf("read proof: %w", err)
	}
	if len(raw) > MaxProofBytes {
		return "", ErrProofTooBig
	}
	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		return "", ErrNotImage
	}
	if s.MaxWidth > 0 && img.Bounds().Dx() > s.MaxWidth {
		img = imaging.Resize(img, s.MaxWidth, 0, imaging.Lanczos)
	}

	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	t := now()
	ref := path.Join(proofDir, t.Format("2006"), t.Format("01"), uuid.NewString()+".jpg")

	full := filepath.Join(s.Root, filepath.FromSlash(ref))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create proof directory: %w", err)
	}
	if err := imaging.Save(img, full, imaging.JPEGQuality(85)); err != nil {
		return "", fmt.Errorf("save proof %s: %w", ref, err)
	}
	return ref, nil
}

// SaveFile stores a multipart upload.
func (s *ProofStore) SaveFile(header *multipart.FileHeader) (string, error) {
	if header.Size > MaxProofBytes {
		return "", ErrProofTooBig
	}
	file, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("open upload %s: %w", header.Filename, err)
	}
	defer file.Close()
	return s.Save(file)
}

// Path maps a stored reference back to a file on disk. References outside
// the proofs directory are refused.
func (s *ProofStore) Path(ref string) (string, error) {
	clean := path.Clean("/" + strings.TrimSpace(ref))[1:]
	if !strings.HasPrefix(clean, proofDir+"/") || clean != strings.TrimSpace(ref) {
		return "", ErrInvalidProof
	}
	return filepath.Join(s.Root, filepath.FromSlash(clean)), nil
}

func (s *ProofStore) Remove(ref string) error {
	full, err := s.Path(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove proof %s: %w", ref, err)
	}
	return nil
}
