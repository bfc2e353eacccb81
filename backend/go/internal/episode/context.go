package episode

import "MedMemory/backend/go/internal/models"

// SameRegimen 判断两条用药记录是否属于同一方案：编码相同，剂量、频次、途径规整后相同。
func SameRegimen(a, b *models.MedicationFact) bool {
	return a.Code == b.Code &&
		models.Normalize(a.Dose) == models.Normalize(b.Dose) &&
		models.Normalize(a.Frequency) == models.Normalize(b.Frequency) &&
		models.Normalize(a.Route) == models.Normalize(b.Route)
}

// SameSymptomContext 判断两条症状记录是否描述同一症状。
// 部位与性质只在两侧都填写时才参与比较，任一侧缺失视为兼容。
func SameSymptomContext(a, b *models.SymptomFact) bool {
	if models.Normalize(a.Concept) != models.Normalize(b.Concept) {
		return false
	}
	return optionalMatch(a.BodySite, b.BodySite) && optionalMatch(a.Characteristics, b.Characteristics)
}

func optionalMatch(a, b string) bool {
	na, nb := models.Normalize(a), models.Normalize(b)
	if na == "" || nb == "" {
		return true
	}
	return na == nb
}

func sameCode(a, b *models.MedicationFact) bool {
	return a.Code == b.Code
}

func sameConcept(a, b *models.SymptomFact) bool {
	return models.Normalize(a.Concept) == models.Normalize(b.Concept)
}
