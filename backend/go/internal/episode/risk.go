package episode

import (
	"strings"

	"MedMemory/backend/go/internal/models"
)

// HighRiskMedications 是需要更严格合并阈值的药品关键字：
// 抗凝药、胰岛素、窄治疗窗药物、致畸药与化疗药。
var HighRiskMedications = []string{
	"warfarin", "heparin", "insulin", "clopidogrel", "digoxin", "lithium",
	"amiodarone", "theophylline", "carbamazepine", "valproate", "valproic",
	"phenytoin", "methotrexate", "cyclophosphamide", "isotretinoin",
	"华法林", "肝素", "胰岛素", "氯吡格雷", "地高辛", "碳酸锂",
	"胺碘酮", "茶碱", "卡马西平", "丙戊酸", "苯妥英",
	"甲氨蝶呤", "环磷酰胺", "异维a酸",
}

// HighRiskSymptoms 是需要更严格合并阈值的症状关键字。
var HighRiskSymptoms = []string{
	"胸痛", "呼吸困难", "气促", "咯血", "黑便", "神志不清", "肢体无力", "抽搐", "严重过敏", "过敏性休克",
	"chestpain", "dyspnea", "shortnessofbreath", "hemoptysis", "melena",
	"confusion", "limbweakness", "seizure", "severeallergy", "anaphylaxis",
}

// IsHighRisk 判断名称规整后是否包含观察列表中的任一关键字。
func IsHighRisk(name string, watchList []string) bool {
	n := models.Normalize(name)
	if n == "" {
		return false
	}
	for _, kw := range watchList {
		if strings.Contains(n, models.Normalize(kw)) {
			return true
		}
	}
	return false
}

var provenanceWeights = map[string]float64{
	"ehr":         1.0,
	"hospital":    0.95,
	"doctor":      0.95,
	"clinic":      0.9,
	"insurance":   0.85,
	"pharmacy":    0.85,
	"self-report": 0.65,
	"self":        0.65,
	"selfreport":  0.65,
	"chat":        0.6,

	"电子病历": 1.0,
	"医院":   0.95,
	"医生":   0.95,
	"诊所":   0.9,
	"医保":   0.85,
	"保险":   0.85,
	"药房":   0.85,
	"自述":   0.65,
	"聊天":   0.6,
}

// ProvenanceWeight 返回来源的可信度权重。缺失为 0.6，未知来源为 0.7。
func ProvenanceWeight(source string) float64 {
	key := strings.ReplaceAll(models.Normalize(source), "_", "-")
	if key == "" {
		return 0.6
	}
	if w, ok := provenanceWeights[key]; ok {
		return w
	}
	return 0.7
}
