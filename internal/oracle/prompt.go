package oracle

import (
	"fmt"
	"strings"

	"github.com/dgallion1/matclass/internal/hierarchy"
)

// SystemPrompt is sent as the system turn of every decision request.
const SystemPrompt = "Responda sempre em JSON válido."

const decisionInstructions = `INSTRUÇÕES:
1. Escolha apenas UMA opção da lista acima.
2. Responda estritamente no formato JSON.
3. Retorne APENAS o código numérico no campo "codigo_escolhido".
4. Se nenhuma opção descrever o item, retorne null em "codigo_escolhido".

Formato Obrigatório:
{
  "codigo_escolhido": "CÓDIGO_NUMÉRICO"
}`

// BuildPrompt renders the decision prompt for one branch point. Candidates
// are listed in the order given.
func BuildPrompt(item string, candidates []hierarchy.Option) string {
	var sb strings.Builder
	sb.WriteString("Você é um classificador especialista de materiais industriais.\n")
	sb.WriteString("Analise o ITEM abaixo e escolha a categoria que melhor o descreve dentre as OPÇÕES fornecidas.\n\n")
	sb.WriteString(fmt.Sprintf("ITEM: %q\n\n", strings.TrimSpace(item)))
	sb.WriteString("OPÇÕES DO NÍVEL ATUAL:\n")
	for _, c := range candidates {
		sb.WriteString(fmt.Sprintf("- %s: %s\n", c.Code, c.Description))
	}
	sb.WriteString("\n")
	sb.WriteString(decisionInstructions)
	return sb.String()
}
