package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"africa-gateway/countries/infra"
)

// runSnapshot grava o dataset vivo de fronteiras em out. A escrita passa por
// um arquivo temporário para nunca deixar um snapshot pela metade.
func runSnapshot(ctx context.Context, cfg config, out string, w io.Writer) error {
	ne := infra.NewNaturalEarthClient(infra.NaturalEarthOptions{
		URL:     cfg.naturalEarthURL,
		Timeout: cfg.apiTimeout,
	})
	fc, raw, err := ne.FetchLive(ctx)
	if err != nil {
		return fmt.Errorf("fetch boundaries: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(out), ".snapshot-*")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), out); err != nil {
		return err
	}
	fmt.Fprintf(w, "wrote %d features from %s to %s\n", len(fc.Features), ne.URL(), out)
	return nil
}
