package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/luchoelporo900-design/optica-yolanda2/internal/branch"
	"github.com/luchoelporo900-design/optica-yolanda2/internal/models"
	"github.com/luchoelporo900-design/optica-yolanda2/internal/store"
	"github.com/luchoelporo900-design/optica-yolanda2/internal/utils"
)

// Flag renders a boolean as "1"/"0" in CSV exports.
type Flag bool

func (f Flag) MarshalCSV() (string, error) {
	if f {
		return "1", nil
	}
	return "0", nil
}

// exportRow fixes the CSV column set and order for catalog exports.
type exportRow struct {
	Codigo      string `csv:"codigo"`
	Nombre      string `csv:"nombre"`
	Precio      string `csv:"precio"`
	Categoria   string `csv:"categoria"`
	Oferta      Flag   `csv:"oferta"`
	PrecioPromo string `csv:"precioPromo"`
	Img         string `csv:"img"`
}

// ExportService renders branch catalogs as downloadable CSV or JSON
// documents.
type ExportService struct {
	registry *branch.Registry
	store    store.Store
}

// NewExportService constructs an ExportService.
func NewExportService(registry *branch.Registry, st store.Store) *ExportService {
	return &ExportService{registry: registry, store: st}
}

// Export renders the branch catalog in the requested format and returns the
// document bytes plus their content type. The optional categoria filter is
// case-insensitive and applies to a copy; the stored catalog is never
// touched.
func (s *ExportService) Export(ctx context.Context, rawBranch, format, categoria string) ([]byte, string, error) {
	branchName, err := s.registry.Resolve(rawBranch)
	if err != nil {
		return nil, "", err
	}

	products, err := s.store.Load(branchName)
	if err != nil {
		return nil, "", err
	}
	products = filterByCategoria(products, categoria)

	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		data, err := json.Marshal(products)
		if err != nil {
			return nil, "", fmt.Errorf("%w: rendering json export: %v", utils.ErrStorage, err)
		}
		return data, "application/json; charset=utf-8", nil
	case "csv":
		rows := make([]exportRow, 0, len(products))
		for _, p := range products {
			rows = append(rows, exportRow{
				Codigo:      p.Codigo,
				Nombre:      p.Nombre,
				Precio:      p.Precio,
				Categoria:   p.Categoria,
				Oferta:      Flag(p.Oferta),
				PrecioPromo: p.PrecioPromo,
				Img:         p.Img,
			})
		}
		data, err := gocsv.MarshalBytes(&rows)
		if err != nil {
			return nil, "", fmt.Errorf("%w: rendering csv export: %v", utils.ErrStorage, err)
		}
		return data, "text/csv; charset=utf-8", nil
	default:
		return nil, "", fmt.Errorf("%w: unsupported export format: %s", utils.ErrValidation, format)
	}
}

// filterByCategoria returns the products matching categoria (exact,
// case-insensitive), or all of them when categoria is empty. It always
// allocates so callers cannot alias the loaded slice.
func filterByCategoria(products []models.Product, categoria string) []models.Product {
	categoria = strings.TrimSpace(categoria)
	filtered := make([]models.Product, 0, len(products))
	for _, p := range products {
		if categoria == "" || strings.EqualFold(p.Categoria, categoria) {
			filtered = append(filtered, p)
		}
	}
	return filtered
}
