package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/SumitPatel-HQ/fixit/internal/model"
)

// Key derives the content-addressed cache key for a call. Every prompt part
// is reduced to text or a deterministic shape placeholder before hashing:
// binary payloads contribute "<BINARY:WxH>", never their bytes, so two images
// with the same dimensions hash alike and no image content ever reaches the
// digest. Stage kind, temperature, and token limit are part of the identity.
func Key(kind model.StageKind, in *model.PromptInput) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|", kind)
	for _, p := range in.Parts {
		if p.Binary != nil {
			fmt.Fprintf(h, "<BINARY:%dx%d>|", p.Binary.Width, p.Binary.Height)
			continue
		}
		h.Write([]byte(p.Text))
		h.Write([]byte{'|'})
	}
	h.Write([]byte(strconv.FormatFloat(in.Temperature, 'g', -1, 64)))
	h.Write([]byte{'|'})
	h.Write([]byte(strconv.Itoa(in.MaxTokens)))
	return hex.EncodeToString(h.Sum(nil))
}
