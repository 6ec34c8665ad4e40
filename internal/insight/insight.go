package insight

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/choclar/precificador/internal/pricing"
)

// Fallback is the fixed sentence shown whenever the insight request fails for
// any reason: missing credential, network error, or a malformed response.
const Fallback = "Não foi possível gerar insights automáticos no momento. Verifique sua conexão."

const defaultBaseURL = "https://generativelanguage.googleapis.com"

// Client requests a natural-language financial commentary from the Gemini
// text-generation API. The exchange is treated as opaque: prompt in, prose
// out.
type Client struct {
	apiKey  string
	model   string
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

// NewClient builds a client for the given credential and model. An empty
// baseURL selects the public Gemini endpoint; tests point it at a fake.
func NewClient(apiKey, model, baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		apiKey:  apiKey,
		model:   model,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

// Analyze sends the computed pricing data for commentary and returns the
// generated prose, or Fallback on any failure. A single attempt; no retries.
func (c *Client) Analyze(ctx context.Context, items []pricing.ItemResult, summary pricing.Summary) string {
	text, err := c.generate(ctx, BuildPrompt(items, summary))
	if err != nil {
		c.log.Warn().Err(err).Msg("insight request failed")
		return Fallback
	}
	return text
}

type generatePart struct {
	Text string `json:"text"`
}

type generateContent struct {
	Parts []generatePart `json:"parts"`
}

type generateRequest struct {
	Contents []generateContent `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content generateContent `json:"content"`
	} `json:"candidates"`
}

func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	if c.apiKey == "" {
		return "", errors.New("missing api key")
	}

	body, err := json.Marshal(generateRequest{
		Contents: []generateContent{{Parts: []generatePart{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		c.baseURL, url.PathEscape(c.model), url.QueryEscape(c.apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("call generate endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("generate endpoint returned status %d", resp.StatusCode)
	}

	var decoded generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(decoded.Candidates) == 0 {
		return "", errors.New("response has no candidates")
	}

	var b strings.Builder
	for _, part := range decoded.Candidates[0].Content.Parts {
		b.WriteString(part.Text)
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", errors.New("response has no text")
	}
	return text, nil
}

// BuildPrompt renders the consultative analysis prompt, embedding every item
// and the financial summary at display precision.
func BuildPrompt(items []pricing.ItemResult, summary pricing.Summary) string {
	var b strings.Builder

	b.WriteString("Como um especialista financeiro, analise os seguintes dados de precificação comercial:\n\n")
	b.WriteString("Produtos e Custos Reais:\n")
	for _, it := range items {
		fmt.Fprintf(&b, "- %s: Qtd %d, Custo Base R$%.2f, Valor Unitário Final (após frete e ajustes de %% aplicados) R$%.2f\n",
			it.Description, it.Quantity, it.UnitCost, it.FinalUnitCost)
	}

	b.WriteString("\nResumo Financeiro da Nota:\n")
	fmt.Fprintf(&b, "- Subtotal dos Itens: R$ %.2f\n", summary.SubtotalItems)
	fmt.Fprintf(&b, "- Custo de Frete: R$ %.2f\n", summary.Freight)
	fmt.Fprintf(&b, "- Valor do Desconto Aplicado (via %%): R$ %.2f\n", summary.DiscountAmount)
	fmt.Fprintf(&b, "- Valor do Acréscimo/Margem Aplicado (via %%): R$ %.2f\n", summary.MarkupAmount)
	fmt.Fprintf(&b, "- Valor Total Geral da Operação: R$ %.2f\n", summary.GrandTotal)

	b.WriteString(`
Forneça uma análise estratégica (máximo 3 parágrafos) sobre:
1. O peso do frete e dos ajustes percentuais no custo final dos produtos.
2. Sugestão de preço de venda (markup) para garantir uma margem saudável.
3. Alerta sobre possíveis itens com custo unitário muito elevado em relação ao base.
Use um tom profissional, consultivo e direto em português brasileiro.
`)

	return b.String()
}
