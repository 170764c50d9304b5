package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/luchoelporo900-design/optica-yolanda2/internal/assets"
	"github.com/luchoelporo900-design/optica-yolanda2/internal/branch"
	"github.com/luchoelporo900-design/optica-yolanda2/internal/models"
	"github.com/luchoelporo900-design/optica-yolanda2/internal/store"
	"github.com/luchoelporo900-design/optica-yolanda2/internal/utils"
)

// ProductService handles catalog CRUD per branch. Every mutation runs under
// that branch's lock so concurrent load-modify-save cycles cannot lose
// updates.
type ProductService struct {
	registry *branch.Registry
	store    store.Store
	assets   *assets.Manager
	gate     *AdminGate

	mu       sync.Mutex
	branchMu map[string]*sync.Mutex
}

// NewProductService constructs a ProductService.
func NewProductService(registry *branch.Registry, st store.Store, am *assets.Manager, gate *AdminGate) *ProductService {
	return &ProductService{
		registry: registry,
		store:    st,
		assets:   am,
		gate:     gate,
		branchMu: make(map[string]*sync.Mutex),
	}
}

func (s *ProductService) lock(branch string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.branchMu[branch]
	if !ok {
		m = &sync.Mutex{}
		s.branchMu[branch] = m
	}
	return m
}

// Catalog returns the branch's products. Reads need no admin key.
func (s *ProductService) Catalog(ctx context.Context, rawBranch string) ([]models.Product, error) {
	branchName, err := s.registry.Resolve(rawBranch)
	if err != nil {
		return nil, err
	}
	return s.store.Load(branchName)
}

// Create stores the image, validates the input and appends a new product to
// the branch catalog. The image hits disk before validation completes, so
// every rejection after that point removes it again: a failed create leaves
// no orphan file behind.
func (s *ProductService) Create(ctx context.Context, rawBranch, adminKey string, in models.ProductInput, image *models.UploadedImage) (*models.Product, error) {
	branchName, err := s.registry.Resolve(rawBranch)
	if err != nil {
		return nil, err
	}
	if err := s.gate.Authorize(adminKey); err != nil {
		return nil, err
	}
	if image == nil || len(image.Data) == 0 {
		return nil, fmt.Errorf("%w: imagen is required", utils.ErrValidation)
	}

	ref, err := s.assets.Store(branchName, image.Data, image.Name)
	if err != nil {
		return nil, err
	}

	if field := missingField(in); field != "" {
		s.discard(ref)
		return nil, fmt.Errorf("%w: %s is required", utils.ErrValidation, field)
	}

	l := s.lock(branchName)
	l.Lock()
	defer l.Unlock()

	products, err := s.store.Load(branchName)
	if err != nil {
		s.discard(ref)
		return nil, err
	}

	codigo := strVal(in.Codigo)
	if codigoTaken(products, codigo, "") {
		s.discard(ref)
		return nil, fmt.Errorf("%w: codigo already exists: %s", utils.ErrDuplicateCode, codigo)
	}

	id, err := utils.NewProductID()
	if err != nil {
		s.discard(ref)
		return nil, fmt.Errorf("%w: generating product id: %v", utils.ErrStorage, err)
	}

	product := models.Product{
		ID:        id,
		Codigo:    codigo,
		Nombre:    strVal(in.Nombre),
		Precio:    strVal(in.Precio),
		Categoria: strVal(in.Categoria),
		Img:       ref,
		Ts:        time.Now().UnixMilli(),
	}
	if in.Oferta != nil {
		product.Oferta = models.ParseFlag(*in.Oferta)
	}
	if in.PrecioPromo != nil {
		product.PrecioPromo = strings.TrimSpace(*in.PrecioPromo)
	}

	products = append(products, product)
	if err := s.store.Save(branchName, products); err != nil {
		s.discard(ref)
		return nil, err
	}

	log.Info().Str("sucursal", branchName).Str("id", product.ID).Str("codigo", product.Codigo).Msg("Product created")
	return &product, nil
}

// Update applies a partial patch to an existing product. Only submitted
// fields change; a conflicting codigo aborts with nothing committed. When a
// new image arrives it is stored first and the old asset is removed only
// after the snapshot save succeeds.
func (s *ProductService) Update(ctx context.Context, rawBranch, adminKey, id string, in models.ProductInput, image *models.UploadedImage) (*models.Product, error) {
	branchName, err := s.registry.Resolve(rawBranch)
	if err != nil {
		return nil, err
	}
	if err := s.gate.Authorize(adminKey); err != nil {
		return nil, err
	}

	newRef := ""
	if image != nil && len(image.Data) > 0 {
		newRef, err = s.assets.Store(branchName, image.Data, image.Name)
		if err != nil {
			return nil, err
		}
	}

	l := s.lock(branchName)
	l.Lock()
	defer l.Unlock()

	products, err := s.store.Load(branchName)
	if err != nil {
		s.discard(newRef)
		return nil, err
	}

	idx := indexByID(products, id)
	if idx < 0 {
		s.discard(newRef)
		return nil, fmt.Errorf("%w: %s", utils.ErrNotFound, id)
	}

	updated := products[idx]

	if in.Codigo != nil {
		codigo := strVal(in.Codigo)
		if codigo == "" {
			s.discard(newRef)
			return nil, fmt.Errorf("%w: codigo must not be empty", utils.ErrValidation)
		}
		if codigoTaken(products, codigo, updated.ID) {
			s.discard(newRef)
			return nil, fmt.Errorf("%w: codigo already exists: %s", utils.ErrDuplicateCode, codigo)
		}
		updated.Codigo = codigo
	}
	if in.Nombre != nil {
		nombre := strVal(in.Nombre)
		if nombre == "" {
			s.discard(newRef)
			return nil, fmt.Errorf("%w: nombre must not be empty", utils.ErrValidation)
		}
		updated.Nombre = nombre
	}
	if in.Precio != nil {
		precio := strVal(in.Precio)
		if precio == "" {
			s.discard(newRef)
			return nil, fmt.Errorf("%w: precio must not be empty", utils.ErrValidation)
		}
		updated.Precio = precio
	}
	if in.Categoria != nil {
		categoria := strVal(in.Categoria)
		if categoria == "" {
			s.discard(newRef)
			return nil, fmt.Errorf("%w: categoria must not be empty", utils.ErrValidation)
		}
		updated.Categoria = categoria
	}
	if in.Oferta != nil {
		updated.Oferta = models.ParseFlag(*in.Oferta)
	}
	if in.PrecioPromo != nil {
		updated.PrecioPromo = strings.TrimSpace(*in.PrecioPromo)
	}

	oldRef := ""
	if newRef != "" {
		oldRef = updated.Img
		updated.Img = newRef
	}
	updated.Ts = time.Now().UnixMilli()

	products[idx] = updated
	if err := s.store.Save(branchName, products); err != nil {
		s.discard(newRef)
		return nil, err
	}

	if oldRef != "" && oldRef != newRef {
		status := s.assets.Delete(oldRef)
		log.Info().Str("sucursal", branchName).Str("id", id).Str("asset", oldRef).Stringer("status", status).Msg("Replaced asset removed")
	}

	log.Info().Str("sucursal", branchName).Str("id", id).Msg("Product updated")
	return &updated, nil
}

// Delete removes a product and its asset. The asset removal is best effort;
// a file already gone does not fail the operation.
func (s *ProductService) Delete(ctx context.Context, rawBranch, adminKey, id string) error {
	branchName, err := s.registry.Resolve(rawBranch)
	if err != nil {
		return err
	}
	if err := s.gate.Authorize(adminKey); err != nil {
		return err
	}

	l := s.lock(branchName)
	l.Lock()
	defer l.Unlock()

	products, err := s.store.Load(branchName)
	if err != nil {
		return err
	}

	idx := indexByID(products, id)
	if idx < 0 {
		return fmt.Errorf("%w: %s", utils.ErrNotFound, id)
	}

	if ref := products[idx].Img; ref != "" {
		status := s.assets.Delete(ref)
		log.Info().Str("sucursal", branchName).Str("id", id).Str("asset", ref).Stringer("status", status).Msg("Product asset removed")
	}

	products = append(products[:idx], products[idx+1:]...)
	if err := s.store.Save(branchName, products); err != nil {
		return err
	}

	log.Info().Str("sucursal", branchName).Str("id", id).Msg("Product deleted")
	return nil
}

// discard removes an asset written for a request that was later rejected.
func (s *ProductService) discard(ref string) {
	if ref == "" {
		return
	}
	status := s.assets.Delete(ref)
	log.Debug().Str("asset", ref).Stringer("status", status).Msg("Rejected upload discarded")
}

func strVal(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}

// missingField returns the first required field absent from in, or "".
func missingField(in models.ProductInput) string {
	switch {
	case strVal(in.Codigo) == "":
		return "codigo"
	case strVal(in.Nombre) == "":
		return "nombre"
	case strVal(in.Precio) == "":
		return "precio"
	case strVal(in.Categoria) == "":
		return "categoria"
	}
	return ""
}

// codigoTaken reports whether codigo is already used by a product other than
// excludeID. Comparison is case-insensitive.
func codigoTaken(products []models.Product, codigo, excludeID string) bool {
	for i := range products {
		if excludeID != "" && products[i].ID == excludeID {
			continue
		}
		if strings.EqualFold(products[i].Codigo, codigo) {
			return true
		}
	}
	return false
}

func indexByID(products []models.Product, id string) int {
	for i := range products {
		if products[i].ID == id {
			return i
		}
	}
	return -1
}
