// Package qr renders the scannable verification artifacts issued to a
// worker after approval.
package qr

import (
	"context"
	"fmt"
	"strings"

	qrcode "github.com/skip2/go-qrcode"

	dErrors "suraksha/pkg/domain-errors"
)

// qrImageSize is the rendered PNG edge length in pixels.
const qrImageSize = 256

// AssetStore persists the rendered PNG.
type AssetStore interface {
	Save(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// Artifacts are the verification surfaces issued with an official worker
// ID: a stored QR image and the API endpoint the QR encodes a page for.
type Artifacts struct {
	// QRCodeURL is the reference to the rendered QR PNG.
	QRCodeURL string
	// ScanURL is the human-facing page the QR encodes.
	ScanURL string
	// VerificationEndpoint is the machine-readable lookup for the worker.
	VerificationEndpoint string
}

// Generator renders QR codes against the public base URL.
type Generator struct {
	baseURL string
	assets  AssetStore
}

func NewGenerator(baseURL string, assets AssetStore) *Generator {
	return &Generator{baseURL: strings.TrimRight(baseURL, "/"), assets: assets}
}

// Generate renders and stores the QR image for an official worker ID.
// Generation is deterministic for a given ID, so regeneration after a
// partial failure overwrites with identical content.
func (g *Generator) Generate(ctx context.Context, officialID string) (Artifacts, error) {
	if officialID == "" {
		return Artifacts{}, dErrors.New(dErrors.CodeInvalidInput, "official worker ID is required")
	}

	scanURL := fmt.Sprintf("%s/verify?id=%s", g.baseURL, officialID)
	endpoint := fmt.Sprintf("%s/api/verify/worker/%s", g.baseURL, officialID)

	png, err := qrcode.Encode(scanURL, qrcode.Medium, qrImageSize)
	if err != nil {
		return Artifacts{}, dErrors.External("qr encoder", err)
	}

	key := fmt.Sprintf("qr/%s.png", officialID)
	ref, err := g.assets.Save(ctx, key, png, "image/png")
	if err != nil {
		return Artifacts{}, dErrors.External("asset store", err)
	}

	return Artifacts{
		QRCodeURL:            ref,
		ScanURL:              scanURL,
		VerificationEndpoint: endpoint,
	}, nil
}
