package repository

import (
	"encoding/json"

	"github.com/parisxmas/leadsite/internal/models"
)

// leadToDoc converts a lead to a generic document keyed by its JSON names.
func leadToDoc(l models.Lead) map[string]any {
	data, _ := json.Marshal(l)
	var doc map[string]any
	json.Unmarshal(data, &doc)
	// OxiDB owns _id; keep ours under leadId.
	doc["leadId"] = doc["id"]
	delete(doc, "id")
	return doc
}
