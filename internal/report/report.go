package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/choclar/precificador/internal/money"
	"github.com/choclar/precificador/internal/pricing"
)

const defaultName = "RELATORIO"

// Input carries everything the renderer needs. The document is derived
// purely from this data; no pricing math happens here.
type Input struct {
	Name      string
	Results   []pricing.ItemResult
	Summary   pricing.Summary
	Insight   string
	Generated time.Time
}

// FileName derives the export filename from the snapshot name, upper-cased,
// defaulting when the note has no label yet.
func FileName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = defaultName
	}
	return "CHOCLAR_PRECO_" + strings.ToUpper(name) + ".pdf"
}

// Render writes the A4 cost report: the item table, the apportioned
// final-unit-cost table, the consolidated summary block, and the optional
// insight note.
func Render(w io.Writer, in Input) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = "Nota Avulsa"
	}

	// Header.
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(120, 8, tr("Relatório de Custos"), "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 8, tr(name), "", 1, "R", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(110, 110, 110)
	pdf.CellFormat(120, 5, tr("CHOC-LAR • Precificação Inteligente"), "", 0, "L", false, 0, "")
	pdf.CellFormat(0, 5, in.Generated.Format("02/01/2006 15:04"), "", 1, "R", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(4)
	pdf.SetDrawColor(30, 30, 30)
	pdf.SetLineWidth(0.6)
	pdf.Line(15, pdf.GetY(), 195, pdf.GetY())
	pdf.Ln(5)

	// Section 1: items as entered.
	sectionTitle(pdf, tr, "1. Detalhamento de Itens")
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(240, 240, 240)
	pdf.CellFormat(80, 7, tr("Descrição"), "1", 0, "L", true, 0, "")
	pdf.CellFormat(35, 7, tr("Custo Un."), "1", 0, "R", true, 0, "")
	pdf.CellFormat(20, 7, "Qtd", "1", 0, "C", true, 0, "")
	pdf.CellFormat(45, 7, "Total", "1", 1, "R", true, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	for _, it := range in.Results {
		pdf.CellFormat(80, 7, tr(orDash(it.Description)), "1", 0, "L", false, 0, "")
		pdf.CellFormat(35, 7, tr(money.FormatBRL(it.UnitCost)), "1", 0, "R", false, 0, "")
		pdf.CellFormat(20, 7, fmt.Sprintf("%d", it.Quantity), "1", 0, "C", false, 0, "")
		pdf.CellFormat(45, 7, tr(money.FormatBRL(it.BaseTotal)), "1", 1, "R", false, 0, "")
	}
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(135, 7, "Subtotal Itens:", "1", 0, "R", true, 0, "")
	pdf.CellFormat(45, 7, tr(money.FormatBRL(in.Summary.SubtotalItems)), "1", 1, "R", true, 0, "")
	pdf.Ln(6)

	// Section 2: landed cost per unit after apportionment and adjustments.
	sectionTitle(pdf, tr, "2. Custos Reais (Rateio)")
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(95, 7, "Produto", "1", 0, "L", true, 0, "")
	pdf.CellFormat(40, 7, "Frete Rateado", "1", 0, "R", true, 0, "")
	pdf.CellFormat(45, 7, "Custo Final Unit.", "1", 1, "R", true, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	for _, it := range in.Results {
		pdf.CellFormat(95, 7, tr(orDash(it.Description)), "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 7, tr(money.FormatBRL(it.ApportionedFreight)), "1", 0, "R", false, 0, "")
		pdf.SetFont("Helvetica", "B", 9)
		pdf.CellFormat(45, 7, tr(money.FormatBRL(it.FinalUnitCost)), "1", 1, "R", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
	}
	pdf.Ln(6)

	// Consolidated summary.
	sectionTitle(pdf, tr, "3. Resumo Consolidado")
	summaryLine(pdf, tr, "Subtotal Produtos", money.FormatBRL(in.Summary.SubtotalItems))
	summaryLine(pdf, tr, "Frete / Encargos", "+ "+money.FormatBRL(in.Summary.Freight))
	summaryLine(pdf, tr, "Desconto", "- "+money.FormatBRL(in.Summary.DiscountAmount))
	summaryLine(pdf, tr, "Margem/Ajuste", "+ "+money.FormatBRL(in.Summary.MarkupAmount))
	pdf.Ln(2)
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(110, 9, tr("Custo Total da Operação"), "T", 0, "L", false, 0, "")
	pdf.CellFormat(0, 9, tr(money.FormatBRL(in.Summary.GrandTotal)), "T", 1, "R", false, 0, "")

	if insight := strings.TrimSpace(in.Insight); insight != "" {
		pdf.Ln(6)
		pdf.SetFont("Helvetica", "B", 9)
		pdf.CellFormat(0, 6, "Nota da IA", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "I", 9)
		pdf.SetTextColor(80, 80, 80)
		pdf.MultiCell(0, 5, tr(insight), "", "L", false)
		pdf.SetTextColor(0, 0, 0)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}

func sectionTitle(pdf *gofpdf.Fpdf, tr func(string) string, title string) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetTextColor(90, 90, 90)
	pdf.CellFormat(0, 6, tr(title), "B", 1, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(2)
}

func summaryLine(pdf *gofpdf.Fpdf, tr func(string) string, label, value string) {
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(110, 6, tr(label), "", 0, "L", false, 0, "")
	pdf.CellFormat(0, 6, tr(value), "", 1, "R", false, 0, "")
}

func orDash(description string) string {
	if strings.TrimSpace(description) == "" {
		return "-"
	}
	return description
}
