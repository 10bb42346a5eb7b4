package artifact

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/angeloszaimis/family-classifier/internal/schema"
)

const (
	ClassifierFile = "modelo_familias.json"
	ScalerFile     = "scaler.json"
	EncoderFile    = "label_encoder.json"
)

// Bundle holds the loaded artifacts. It is read-only after Load returns.
type Bundle struct {
	Dir        string
	Classifier Classifier
	Scaler     *Scaler
	Encoder    *LabelEncoder
}

// DefaultDir is the directory of the running executable.
func DefaultDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("locate executable: %w", err)
	}
	return filepath.Dir(exe), nil
}

// Load reads and cross-checks the three artifacts in dir.
func Load(ctx context.Context, dir string) (*Bundle, error) {
	b := &Bundle{Dir: dir}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		data, err := readArtifact(ctx, dir, ClassifierFile)
		if err != nil {
			return err
		}
		clf, err := decodeClassifier(data)
		if err != nil {
			return fmt.Errorf("decode %s: %w", ClassifierFile, err)
		}
		b.Classifier = clf
		return nil
	})

	g.Go(func() error {
		data, err := readArtifact(ctx, dir, ScalerFile)
		if err != nil {
			return err
		}
		var s Scaler
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode %s: %w", ScalerFile, err)
		}
		if err := s.validate(); err != nil {
			return fmt.Errorf("decode %s: %w", ScalerFile, err)
		}
		b.Scaler = &s
		return nil
	})

	g.Go(func() error {
		data, err := readArtifact(ctx, dir, EncoderFile)
		if err != nil {
			return err
		}
		var e LabelEncoder
		if err := json.Unmarshal(data, &e); err != nil {
			return fmt.Errorf("decode %s: %w", EncoderFile, err)
		}
		if err := e.validate(); err != nil {
			return fmt.Errorf("decode %s: %w", EncoderFile, err)
		}
		b.Encoder = &e
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := b.checkConsistency(); err != nil {
		return nil, err
	}

	return b, nil
}

func readArtifact(ctx context.Context, dir, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}

func (b *Bundle) checkConsistency() error {
	if b.Scaler.NFeatures != schema.Width {
		return fmt.Errorf("scaler was fit on %d features, schema has %d", b.Scaler.NFeatures, schema.Width)
	}
	if b.Classifier.NumFeatures() != schema.Width {
		return fmt.Errorf("classifier was fit on %d features, schema has %d", b.Classifier.NumFeatures(), schema.Width)
	}
	if b.Classifier.NumClasses() != b.Encoder.Len() {
		return fmt.Errorf("classifier has %d classes, label encoder has %d", b.Classifier.NumClasses(), b.Encoder.Len())
	}
	return nil
}
