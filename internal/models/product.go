package models

import "strings"

// Product represents one catalog entry of a branch. The JSON tags are both the
// persisted snapshot format and the wire format, so the field names follow the
// store's historical payloads.
type Product struct {
	ID          string `json:"id"`
	Codigo      string `json:"codigo"`
	Nombre      string `json:"nombre"`
	Precio      string `json:"precio"`
	Categoria   string `json:"categoria"`
	Oferta      bool   `json:"oferta"`
	PrecioPromo string `json:"precioPromo"`
	Img         string `json:"img"`
	Ts          int64  `json:"ts"`
}

// ProductInput is the mutation payload after form decoding. Nil means the
// field was not submitted: Update applies only non-nil fields, Create requires
// Codigo, Nombre, Precio and Categoria. Precio and PrecioPromo stay opaque
// text; they are never parsed as numbers.
type ProductInput struct {
	Codigo      *string
	Nombre      *string
	Precio      *string
	Categoria   *string
	Oferta      *string
	PrecioPromo *string
}

// UploadedImage carries received file bytes plus the client-side file name,
// which is used only to pick an extension for the stored asset.
type UploadedImage struct {
	Data []byte
	Name string
}

// ParseFlag normalizes the loose boolean encodings accepted for oferta.
// Truthy tokens, case-insensitive with surrounding space ignored:
// "1", "true", "on", "si", "sí", "yes". Anything else is false.
func ParseFlag(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "on", "si", "sí", "yes":
		return true
	}
	return false
}
