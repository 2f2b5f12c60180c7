package http

import (
	"bytes"
	"encoding/json"
	"regexp"

	validation "github.com/jellydator/validation"
	"github.com/layer-3/warden/core"
)

var signaturePattern = regexp.MustCompile(`^(0x)?[0-9a-fA-F]+$`)

// assetParam accepts an asset id sent either as a JSON string or a JSON number
type assetParam string

func (a *assetParam) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*a = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*a = assetParam(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*a = assetParam(n.String())
	return nil
}

// VerifyRequest is the body of POST /verify
type VerifyRequest struct {
	Signature   string     `json:"signature"`
	TokenID     assetParam `json:"tokenId"`
	Token1155ID assetParam `json:"token1155Id"`
	Challenge   string     `json:"challenge"`
}

// Validate checks the request shape
func (r *VerifyRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Signature, validation.Required, validation.Match(signaturePattern)),
		validation.Field(&r.TokenID, validation.By(validateAsset)),
		validation.Field(&r.Token1155ID, validation.By(validateAsset)),
		validation.Field(&r.Challenge, validation.Length(0, 256)),
	)
}

// Ownership picks the asset claim; an ERC-1155 id wins over an ERC-721 id
func (r *VerifyRequest) Ownership() core.Ownership {
	if r.Token1155ID != "" {
		asset, _ := core.ParseAssetRef(string(r.Token1155ID))
		return core.BalanceOwner(asset)
	}
	if r.TokenID != "" {
		asset, _ := core.ParseAssetRef(string(r.TokenID))
		return core.SingleOwner(asset)
	}
	return core.CollectionHolder()
}

func validateAsset(value interface{}) error {
	a, _ := value.(assetParam)
	if a == "" {
		return nil
	}
	if _, err := core.ParseAssetRef(string(a)); err != nil {
		return validation.NewError("validation_asset_id", "must be a non-negative integer")
	}
	return nil
}

// ChatRequest is the body of POST /chat/:streamtoken
type ChatRequest struct {
	Message string `json:"message"`
}

// Validate checks the request shape
func (r *ChatRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Message, validation.Required, validation.Length(1, 4000)),
	)
}
