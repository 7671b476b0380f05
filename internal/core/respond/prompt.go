package respond

import (
	"fmt"
	"strings"

	"github.com/essenzadelsur/support-agent-be/internal/core/knowledge"
	"github.com/essenzadelsur/support-agent-be/internal/core/retrieval"
)

// BuildSystemPrompt assembles the grounded instruction block: persona, the
// retrieved chunk texts verbatim, and the answering rules. When nothing was
// retrieved the prompt switches to the honest no-context variant.
func BuildSystemPrompt(retrieved *retrieval.Result) string {
	var sb strings.Builder

	sb.WriteString("Eres el asistente virtual de Essenza del Sur, una tienda de aceites esenciales y bienestar.\n")
	sb.WriteString("Atiendes a clientes por WhatsApp en español, con un tono cálido y profesional.\n\n")

	if retrieved != nil && len(retrieved.Chunks) > 0 {
		sb.WriteString("=== CONTEXTO DISPONIBLE ===\n")
		for _, sc := range retrieved.Chunks {
			sb.WriteString(sc.Chunk.Content)
			sb.WriteString("\n\n")
		}
		sb.WriteString("Instrucciones:\n")
		sb.WriteString("- Responde únicamente con la información del contexto anterior\n")
		sb.WriteString("- Nunca inventes productos, precios ni existencias que no aparezcan en el contexto\n")
		sb.WriteString("- Si un producto tiene stock 0, indica que está agotado en lugar de ofrecerlo\n")
		sb.WriteString("- Si el contexto no cubre la pregunta, dilo con honestidad\n")
	} else {
		sb.WriteString("Instrucciones:\n")
		sb.WriteString("- No cuentas con información de catálogo para esta pregunta\n")
		sb.WriteString("- Responde con honestidad que no tienes esa información y ofrece ayudar con otra consulta\n")
		sb.WriteString("- Nunca inventes productos, precios ni existencias\n")
	}

	sb.WriteString("- No hagas afirmaciones médicas; habla de bienestar, no de curas\n")
	sb.WriteString("- Mantén las respuestas breves, aptas para un chat\n")

	return sb.String()
}

// productSummaryFrom builds the card for a retrieved product chunk. Every
// field comes from the chunk metadata, so a card can never carry a SKU,
// price, or stock value absent from the retrieved set.
func productSummaryFrom(chunk *knowledge.Chunk) *ProductSummary {
	if chunk == nil || chunk.Metadata.Source != knowledge.SourceProduct {
		return nil
	}
	return &ProductSummary{
		SKU:   chunk.Metadata.SKU,
		Name:  chunk.Metadata.Title,
		Price: chunk.Metadata.Price,
		Stock: chunk.Metadata.Stock,
		Image: chunk.Metadata.Image,
	}
}

// FormatPrice renders a price the way replies and cards show it.
func FormatPrice(price float64) string {
	return fmt.Sprintf("$%.2f MXN", price)
}
