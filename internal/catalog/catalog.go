package catalog

import (
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

const PrefixLength = 12

var ErrInvalidItemID = errors.New("invalid item id")

// ItemID is a category prefix followed by a sequence number, e.g. "1000000006671".
type ItemID string

type Category struct {
	Name   string `json:"name"`
	Prefix string `json:"prefix"`
}

func NewItemID(prefix string, seq int) ItemID {
	return ItemID(prefix + strconv.Itoa(seq))
}

func ParseItemID(s string) (ItemID, error) {
	s = strings.TrimSpace(s)
	if len(s) <= PrefixLength {
		return "", fmt.Errorf("%w: %q is too short", ErrInvalidItemID, s)
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return "", fmt.Errorf("%w: %q is not numeric", ErrInvalidItemID, s)
		}
	}
	if s[PrefixLength] == '0' {
		return "", fmt.Errorf("%w: %q has a zero-padded sequence", ErrInvalidItemID, s)
	}
	return ItemID(s), nil
}

func (id ItemID) String() string {
	return string(id)
}

func (id ItemID) Prefix() string {
	if len(id) < PrefixLength {
		return ""
	}
	return string(id[:PrefixLength])
}

func (id ItemID) Seq() int {
	if len(id) <= PrefixLength {
		return 0
	}
	seq, err := strconv.Atoi(string(id[PrefixLength:]))
	if err != nil {
		return 0
	}
	return seq
}

// TokenID is the on-chain uint256 token id, which is the full identifier read as a decimal.
func (id ItemID) TokenID() *big.Int {
	tokenID, ok := new(big.Int).SetString(string(id), 10)
	if !ok {
		return new(big.Int)
	}
	return tokenID
}

// TokenIDHash is the token id left-padded to 32 bytes, as it appears in an indexed event topic.
func (id ItemID) TokenIDHash() common.Hash {
	return common.BigToHash(id.TokenID())
}

// Range returns the identifiers 1..n of the category in ascending order.
func (c Category) Range(n int) []ItemID {
	ids := make([]ItemID, 0, n)
	for seq := 1; seq <= n; seq++ {
		ids = append(ids, NewItemID(c.Prefix, seq))
	}
	return ids
}

func (c Category) Contains(id ItemID) bool {
	return id.Prefix() == c.Prefix
}

// NewCategories validates the configured name/prefix pairs.
func NewCategories(pairs [][2]string) ([]Category, error) {
	seen := make(map[string]bool)
	categories := make([]Category, 0, len(pairs))
	for _, pair := range pairs {
		name, prefix := pair[0], pair[1]
		if name == "" {
			return nil, fmt.Errorf("category with prefix %s has no name", prefix)
		}
		if len(prefix) != PrefixLength {
			return nil, fmt.Errorf("category %s: prefix %q must be %d digits", name, prefix, PrefixLength)
		}
		if _, err := strconv.ParseUint(prefix, 10, 64); err != nil {
			return nil, fmt.Errorf("category %s: prefix %q is not numeric", name, prefix)
		}
		if seen[prefix] {
			return nil, fmt.Errorf("duplicate category prefix %s", prefix)
		}
		seen[prefix] = true
		categories = append(categories, Category{Name: name, Prefix: prefix})
	}
	return categories, nil
}

func FindCategory(categories []Category, nameOrPrefix string) (Category, bool) {
	for _, c := range categories {
		if c.Name == nameOrPrefix || c.Prefix == nameOrPrefix {
			return c, true
		}
	}
	return Category{}, false
}
