package retrieval

import (
	"fmt"
	"strings"
)

// buildContextBlock 将召回文档拼装为编号上下文块，供 RAG Prompt 注入。
func buildContextBlock(results []SearchResult) string {
	parts := make([]string, 0, len(results))
	for i, r := range results {
		var b strings.Builder
		fmt.Fprintf(&b, "[Dokument %d]\n", i+1)
		fmt.Fprintf(&b, "Titel: %s\n", r.Title)
		if r.Correspondent != "" {
			fmt.Fprintf(&b, "Von: %s\n", r.Correspondent)
		}
		if r.DocumentType != "" {
			fmt.Fprintf(&b, "Typ: %s\n", r.DocumentType)
		}
		fmt.Fprintf(&b, "Inhalt: %s\n", r.Text)
		parts = append(parts, b.String())
	}
	return strings.Join(parts, "\n\n")
}

// buildRAGPrompt 构造问答指令 Prompt（德语，固定模板）。
func buildRAGPrompt(contextBlock, question string) string {
	return fmt.Sprintf(`Du bist ein hilfreicher Assistent, der Fragen über Dokumente beantwortet.

Kontext aus relevanten Dokumenten:
%s

Frage: %s

Anleitung:
- Beantworte die Frage basierend NUR auf den bereitgestellten Dokumenten
- WICHTIG: Verstehe Synonyme! Steuer-ID = Steuernummer = Steuer-Identifikationsnummer = Tax ID, Rechnung = Invoice = Faktura, Vertrag = Contract
- Wenn du Informationen aus einem Dokument zitierst, gib die Dokumentnummer an (z.B. "laut Dokument 2")
- Wenn die Dokumente die Antwort nicht enthalten, sage das deutlich
- Antworte auf Deutsch

Antwort:`, contextBlock, question)
}

// buildParaphrasePrompt 构造查询改写 Prompt。
func buildParaphrasePrompt(question string, n int) string {
	return fmt.Sprintf(`Formuliere die folgende Frage auf %d verschiedene Arten um. Behalte die Bedeutung bei, verwende aber andere Wörter und Satzstrukturen.

Frage: %s

Gib nur die %d umformulierten Fragen aus, eine pro Zeile, ohne Nummerierung oder weitere Erklärungen.`, n, question, n)
}

// buildSynonymPrompt 构造同义词扩展 Prompt。
func buildSynonymPrompt(query string) string {
	return fmt.Sprintf(`Nenne für die wichtigsten Begriffe der folgenden Suchanfrage jeweils 2-4 Synonyme oder alternative Schreibweisen (auch englische Entsprechungen).

Suchanfrage: %s

Gib nur die Synonyme aus, durch Kommas getrennt, ohne Erklärungen.`, query)
}

// buildFilterPrompt 构造过滤条件抽取 Prompt。
// 输出要求为严格 JSON，解析失败即放弃 LLM 过滤。
func buildFilterPrompt(query string, opts MetadataOptions) string {
	return fmt.Sprintf(`Analysiere die folgende Suchanfrage und extrahiere erkannte Metadaten-Filter.

Suchanfrage: %s

Verfügbare Dokumenttypen: %s
Verfügbare Korrespondenten: %s
Verfügbare Tags: %s

Antworte NUR mit einem JSON-Objekt mit den Feldern "document_type", "correspondent", "tags" (Liste) und "year". Lasse Felder weg, die nicht eindeutig aus der Anfrage hervorgehen. Keine weiteren Erklärungen.`,
		query,
		strings.Join(opts.DocumentTypes, ", "),
		strings.Join(opts.Correspondents, ", "),
		strings.Join(opts.Tags, ", "))
}
