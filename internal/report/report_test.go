package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/choclar/precificador/internal/pricing"
)

func TestFileName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", "CHOCLAR_PRECO_RELATORIO.pdf"},
		{"   ", "CHOCLAR_PRECO_RELATORIO.pdf"},
		{"Lote 12", "CHOCLAR_PRECO_LOTE 12.pdf"},
		{"natal", "CHOCLAR_PRECO_NATAL.pdf"},
	}

	for _, c := range cases {
		if got := FileName(c.in); got != c.want {
			t.Fatalf("FileName(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestRenderProducesPDF(t *testing.T) {
	result := pricing.Calculate([]pricing.LineItem{
		{ID: "a", Description: "chocolate meio amargo", UnitCost: 10, Quantity: 2},
		{ID: "b", Description: "", UnitCost: 5, Quantity: 1},
	}, pricing.Adjustments{Freight: 9, DiscountPercent: 10, MarkupPercent: 20})

	var buf bytes.Buffer
	err := Render(&buf, Input{
		Name:      "Lote 12",
		Results:   result.Items,
		Summary:   result.Summary,
		Insight:   "O frete representa cerca de um quarto do custo final.",
		Generated: time.Date(2026, 9, 1, 10, 30, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}

	if !strings.HasPrefix(buf.String(), "%PDF") {
		t.Fatalf("output does not look like a PDF: %q", buf.String()[:16])
	}
	if buf.Len() < 1000 {
		t.Fatalf("suspiciously small PDF: %d bytes", buf.Len())
	}
}

func TestRenderWithoutInsightOrName(t *testing.T) {
	result := pricing.Calculate([]pricing.LineItem{{ID: "a", UnitCost: 1, Quantity: 1}}, pricing.Adjustments{})

	var buf bytes.Buffer
	err := Render(&buf, Input{
		Results:   result.Items,
		Summary:   result.Summary,
		Generated: time.Now(),
	})
	if err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "%PDF") {
		t.Fatal("output does not look like a PDF")
	}
}
