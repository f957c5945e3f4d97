package addrparse

import (
	"errors"
	"testing"
)

func TestFallbackParserParse(t *testing.T) {
	p := NewFallbackParser()
	c, err := p.Parse(false, "12 High Street, Alton, GU34 1AA")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if c.HouseNumber != "12" {
		t.Errorf("HouseNumber = %q, want %q", c.HouseNumber, "12")
	}
	if c.Postcode != "GU34 1AA" {
		t.Errorf("Postcode = %q, want %q", c.Postcode, "GU34 1AA")
	}
	if c.Road == "" {
		t.Errorf("Road = %q, want non-empty", c.Road)
	}
}

func TestComponentsIsEmpty(t *testing.T) {
	if !(Components{}).isEmpty() {
		t.Errorf("zero-value Components should be empty")
	}
	if (Components{City: "Alton"}).isEmpty() {
		t.Errorf("Components with a field set should not be empty")
	}
}

type stubParser struct {
	c   Components
	err error
}

func (s stubParser) Parse(localDebug bool, raw string) (Components, error) {
	return s.c, s.err
}

func TestWithFallbackUsesPrimaryWhenItSucceeds(t *testing.T) {
	primary := stubParser{c: Components{City: "Alton"}}
	p := WithFallback(primary)

	c, err := p.Parse(false, "anything")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if c.City != "Alton" {
		t.Errorf("City = %q, want %q (expected primary's result, not fallback's)", c.City, "Alton")
	}
}

func TestWithFallbackFallsBackOnError(t *testing.T) {
	primary := stubParser{err: errors.New("libpostal unavailable")}
	p := WithFallback(primary)

	c, err := p.Parse(false, "12 High Street, Alton, GU34 1AA")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if c.Postcode != "GU34 1AA" {
		t.Errorf("Postcode = %q, want %q (expected fallback parser's result)", c.Postcode, "GU34 1AA")
	}
}

func TestWithFallbackFallsBackOnEmptyResult(t *testing.T) {
	primary := stubParser{c: Components{}}
	p := WithFallback(primary)

	c, err := p.Parse(false, "12 High Street, Alton, GU34 1AA")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if c.isEmpty() {
		t.Errorf("expected fallback parser to produce non-empty Components")
	}
}
