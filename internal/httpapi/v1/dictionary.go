package v1

import (
	"net/http"

	"github.com/tinoosan/wealth/internal/dictionary"
)

type kindsDictionaryResponse struct {
	AssetKinds       []dictionary.Term        `json:"asset_kinds"`
	LiabilityKinds   []dictionary.Term        `json:"liability_kinds"`
	PaymentMethods   []dictionary.Term        `json:"payment_methods"`
	TransactionKinds []dictionary.Term        `json:"transaction_kinds"`
	Categories       []dictionary.CategoryDef `json:"categories"`
}

// GET /v1/dictionary/kinds
func (s *Server) getKindsDictionary(w http.ResponseWriter, r *http.Request) {
	toJSON(w, http.StatusOK, kindsDictionaryResponse{
		AssetKinds:       dictionary.AssetKinds(),
		LiabilityKinds:   dictionary.LiabilityKinds(),
		PaymentMethods:   dictionary.PaymentMethods(),
		TransactionKinds: dictionary.TransactionKinds(),
		Categories:       dictionary.Categories(),
	})
}
