// Package seed loads reference data (convenio hours and social-charge rates)
// from YAML documents.
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"

	e "github.com/gartstein/contributions/internal/contributions/errors"
	"github.com/gartstein/contributions/internal/contributions/models"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Decimal reads a YAML scalar as an exact decimal, keeping the literal
// digits instead of going through float64.
type Decimal struct {
	decimal.Decimal
}

func (d *Decimal) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a number", value.Line)
	}
	parsed, err := decimal.NewFromString(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	d.Decimal = parsed
	return nil
}

type Convenio struct {
	Year                int     `yaml:"year"`
	AnnualConvenioHours Decimal `yaml:"annual_convenio_hours"`
}

type CargaSocial struct {
	Tipo       string  `yaml:"tipo"`
	Porcentaje Decimal `yaml:"porcentaje"`
}

// File is a reference-data document.
type File struct {
	Convenios      []Convenio    `yaml:"convenios"`
	CargasSociales []CargaSocial `yaml:"cargas_sociales"`
}

// Target receives the reference data. The service layer satisfies it.
type Target interface {
	UpsertConvenio(ctx context.Context, year int, hours decimal.Decimal) (*models.Convenio, error)
	GetConvenio(ctx context.Context, year int) (*models.Convenio, error)
	UpsertCargaSocial(ctx context.Context, tipo string, porcentaje decimal.Decimal) (*models.CargaSocial, error)
	GetCargaSocial(ctx context.Context, tipo string) (*models.CargaSocial, error)
}

// Parse decodes a document. Unknown keys are rejected.
func Parse(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &f, nil
		}
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return &f, nil
}

// Defaults returns the built-in social-charge rates.
func Defaults() *File {
	f, err := Parse(bytes.NewReader(defaultsYAML))
	if err != nil {
		panic(err)
	}
	return f
}

// Result counts what Apply wrote.
type Result struct {
	Convenios      int
	CargasSociales int
	Skipped        int
}

// Apply writes f to target. Without overwrite, keys that already exist
// are skipped; with it every entry replaces the stored value.
func Apply(ctx context.Context, target Target, f *File, overwrite bool, logger *zap.Logger) (Result, error) {
	var res Result

	for _, c := range f.Convenios {
		if !overwrite {
			present, err := exists(func() error {
				_, err := target.GetConvenio(ctx, c.Year)
				return err
			})
			if err != nil {
				return res, fmt.Errorf("convenio %d: %w", c.Year, err)
			}
			if present {
				res.Skipped++
				continue
			}
		}
		if _, err := target.UpsertConvenio(ctx, c.Year, c.AnnualConvenioHours.Decimal); err != nil {
			return res, fmt.Errorf("convenio %d: %w", c.Year, err)
		}
		res.Convenios++
	}

	for _, c := range f.CargasSociales {
		if !overwrite {
			present, err := exists(func() error {
				_, err := target.GetCargaSocial(ctx, c.Tipo)
				return err
			})
			if err != nil {
				return res, fmt.Errorf("carga social %q: %w", c.Tipo, err)
			}
			if present {
				res.Skipped++
				continue
			}
		}
		if _, err := target.UpsertCargaSocial(ctx, c.Tipo, c.Porcentaje.Decimal); err != nil {
			return res, fmt.Errorf("carga social %q: %w", c.Tipo, err)
		}
		res.CargasSociales++
	}

	logger.Info("Reference data applied",
		zap.Int("convenios", res.Convenios),
		zap.Int("cargas_sociales", res.CargasSociales),
		zap.Int("skipped", res.Skipped),
	)
	return res, nil
}

func exists(get func() error) (bool, error) {
	err := get()
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, e.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}
