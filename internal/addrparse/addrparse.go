// Package addrparse provides a best-effort structured address parser
// backed by libpostal (via github.com/openvenues/gopostal), with a
// fallback to internal/normalize's tokenizer when the primary parser
// returns an error or no components for a given address. The package
// imports the gopostal CGO binding directly, so it builds only where
// libpostal is installed. This mirrors how the teacher's
// match.Generators treated its Parser collaborator: a component
// extractor whose absence degrades candidate generation rather than
// breaking it.
package addrparse

import (
	"strings"

	postal "github.com/openvenues/gopostal/parser"

	"github.com/ehdc-llpg/correlate/internal/debug"
	"github.com/ehdc-llpg/correlate/internal/normalize"
)

// Components holds the structured parts of an address libpostal can
// separate out. Fields are empty when libpostal didn't identify them.
type Components struct {
	HouseNumber string
	Road        string
	Suburb      string
	City        string
	Postcode    string
}

// Parser extracts Components from a raw address string. It's an
// interface so callers (and tests) can substitute a fake for libpostal.
type Parser interface {
	Parse(localDebug bool, raw string) (Components, error)
}

// GopostalParser parses with libpostal. Its Parse never returns an
// error; an address libpostal cannot label yields empty Components.
type GopostalParser struct{}

// NewGopostalParser returns a Parser backed by libpostal.
func NewGopostalParser() *GopostalParser {
	return &GopostalParser{}
}

var _ Parser = (*GopostalParser)(nil)

func (p *GopostalParser) Parse(localDebug bool, raw string) (Components, error) {
	debug.DebugHeader(localDebug)
	defer debug.DebugFooter(localDebug)

	parsed := postal.ParseAddress(raw)
	var c Components
	for _, comp := range parsed {
		switch comp.Label {
		case "house_number":
			c.HouseNumber = comp.Value
		case "road":
			c.Road = comp.Value
		case "suburb":
			c.Suburb = comp.Value
		case "city", "city_district":
			if c.City == "" {
				c.City = comp.Value
			}
		case "postcode":
			c.Postcode = comp.Value
		}
	}

	debug.DebugOutput(localDebug, "gopostal parsed %q -> %+v", raw, c)
	return c, nil
}

// FallbackParser builds Components from internal/normalize's
// tokenizer alone, for builds where libpostal isn't linked or for
// addresses libpostal fails to make sense of.
type FallbackParser struct{}

func NewFallbackParser() *FallbackParser { return &FallbackParser{} }

var _ Parser = (*FallbackParser)(nil)

func (p *FallbackParser) Parse(localDebug bool, raw string) (Components, error) {
	debug.DebugHeader(localDebug)
	defer debug.DebugFooter(localDebug)

	canonical, postcode, _ := normalize.CanonicalAddressDebug(localDebug, raw)
	houseNumbers := normalize.ExtractHouseNumbers(canonical)
	localities := normalize.ExtractLocalityTokens(canonical)
	streetTokens := normalize.TokenizeStreet(canonical)

	c := Components{Postcode: postcode}
	if len(houseNumbers) > 0 {
		c.HouseNumber = houseNumbers[0]
	}
	if len(localities) > 0 {
		c.City = localities[0]
	}
	c.Road = strings.Join(streetTokens, " ")

	return c, nil
}

// WithFallback tries primary first and falls back to FallbackParser when
// primary returns an error or an entirely empty Components — the same
// degrade-gracefully behavior cmd/gopostal-real's callers relied on by
// always having the regex-based extraction available underneath.
func WithFallback(primary Parser) Parser {
	return &fallbackWrapper{primary: primary, fallback: NewFallbackParser()}
}

type fallbackWrapper struct {
	primary  Parser
	fallback Parser
}

func (w *fallbackWrapper) Parse(localDebug bool, raw string) (Components, error) {
	c, err := w.primary.Parse(localDebug, raw)
	if err == nil && !c.isEmpty() {
		return c, nil
	}
	debug.DebugOutput(localDebug, "primary parser fell back for %q (err=%v)", raw, err)
	return w.fallback.Parse(localDebug, raw)
}

func (c Components) isEmpty() bool {
	return c.HouseNumber == "" && c.Road == "" && c.Suburb == "" && c.City == "" && c.Postcode == ""
}
