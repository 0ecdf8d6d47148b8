package build

import (
	"crypto/sha256"
	"encoding/hex"
)

// RendererVersion changes whenever the Markdown or output pipeline changes
// in a way that alters written files.
const RendererVersion = "kiln-render-1"

// Fingerprint identifies the bytes of one output file together with
// everything that produced them.
type Fingerprint struct {
	ContentHash  string
	ThemeHash    string
	ConfigHash   string
	RendererHash string
	RenderHash   string
}

// ForOutput fingerprints rendered data under the given theme and config.
func ForOutput(data []byte, themeHash, configHash string) Fingerprint {
	sum := sha256.Sum256(data)
	f := Fingerprint{
		ContentHash:  hex.EncodeToString(sum[:]),
		ThemeHash:    themeHash,
		ConfigHash:   configHash,
		RendererHash: RendererVersion,
	}
	f.ComputeRenderHash()
	return f
}

func (f *Fingerprint) ComputeRenderHash() {
	h := sha256.New()
	h.Write([]byte(f.ContentHash))
	h.Write([]byte(f.ThemeHash))
	h.Write([]byte(f.ConfigHash))
	h.Write([]byte(f.RendererHash))
	f.RenderHash = hex.EncodeToString(h.Sum(nil))
}
