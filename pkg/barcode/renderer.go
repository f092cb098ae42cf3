// Package barcode implementa el colaborador de etiquetas del inventario:
// convierte un contenido de texto en una imagen PNG (QR o Code-128) con el
// contrato render(contenido, ancho, alto) -> bytes. El núcleo del libro de
// inventario nunca lo invoca; lo usa la capa externa al imprimir etiquetas
// con el SKU o código de barras leído del catálogo.
package barcode

import (
	"bytes"
	"fmt"
	"image/png"
	"strings"

	bcode "github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"github.com/boombuler/barcode/qr"
)

// MaxDimension límite de ancho/alto en píxeles para una etiqueta.
const MaxDimension = 2048

// RenderQR genera un código QR en PNG con el contenido y dimensiones indicadas.
func RenderQR(content string, width, height int) ([]byte, error) {
	if err := validate(content, width, height); err != nil {
		return nil, err
	}
	code, err := qr.Encode(content, qr.M, qr.Auto)
	if err != nil {
		return nil, fmt.Errorf("codificar QR: %w", err)
	}
	return scaleAndEncode(code, width, height)
}

// RenderCode128 genera un código de barras Code-128 en PNG.
func RenderCode128(content string, width, height int) ([]byte, error) {
	if err := validate(content, width, height); err != nil {
		return nil, err
	}
	code, err := code128.Encode(content)
	if err != nil {
		return nil, fmt.Errorf("codificar Code-128: %w", err)
	}
	return scaleAndEncode(code, width, height)
}

func validate(content string, width, height int) error {
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("contenido vacío")
	}
	if width <= 0 || height <= 0 || width > MaxDimension || height > MaxDimension {
		return fmt.Errorf("dimensiones inválidas: %dx%d", width, height)
	}
	return nil
}

func scaleAndEncode(code bcode.Barcode, width, height int) ([]byte, error) {
	scaled, err := bcode.Scale(code, width, height)
	if err != nil {
		return nil, fmt.Errorf("escalar imagen: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, scaled); err != nil {
		return nil, fmt.Errorf("codificar PNG: %w", err)
	}
	return buf.Bytes(), nil
}
