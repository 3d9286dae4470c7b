package assessment

import (
	"fmt"
	"strings"
)

// ContractType is the employment category used when a submission is approved.
type ContractType string

const (
	ContractPJ        ContractType = "PJ"
	ContractCLT       ContractType = "CLT"
	ContractContrato  ContractType = "CONTRATO"
	ContractCooperado ContractType = "COOPERADO"
)

// ContractTypes lists every contract type in resolution priority order.
var ContractTypes = []ContractType{ContractCLT, ContractPJ, ContractCooperado, ContractContrato}

var regimeKeywords = []struct {
	keywords []string
	contract ContractType
}{
	{keywords: []string{"CLT"}, contract: ContractCLT},
	{keywords: []string{"PJ"}, contract: ContractPJ},
	{keywords: []string{"COOPER", "COOP"}, contract: ContractCooperado},
	{keywords: []string{"CONTR"}, contract: ContractContrato},
}

// ResolveContractType derives the contract type from a job's free text regime.
// Matching is case-insensitive by substring; PJ is the fallback.
func ResolveContractType(regime string) ContractType {
	upper := strings.ToUpper(regime)
	for _, rule := range regimeKeywords {
		for _, kw := range rule.keywords {
			if strings.Contains(upper, kw) {
				return rule.contract
			}
		}
	}
	return ContractPJ
}

// ParseContractType validates an explicitly chosen contract type.
func ParseContractType(value string) (ContractType, error) {
	candidate := ContractType(strings.ToUpper(strings.TrimSpace(value)))
	for _, ct := range ContractTypes {
		if ct == candidate {
			return ct, nil
		}
	}
	return "", fmt.Errorf("unknown contract type %q", value)
}

func (c ContractType) String() string { return string(c) }
