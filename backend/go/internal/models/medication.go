package models

import "time"

// MedicationFact 是一条用药记录，由 Code、Dose、Frequency、Route 共同确定一个用药方案。
type MedicationFact struct {
	Bitemporal
	Code      string `json:"code"` // 药品标识，例如 RxNorm 编码或药名
	Dose      string `json:"dose"`
	Frequency string `json:"frequency"`
	Route     string `json:"route"`
}

// NewMedicationFact 创建版本号为 1 的用药记录。提供结束时间时状态为 completed。
func NewMedicationFact(code, dose, frequency, route string, start time.Time, end *time.Time, provenance string) *MedicationFact {
	return &MedicationFact{
		Bitemporal: newBitemporal(start, end, provenance, StatusCompleted),
		Code:       code,
		Dose:       dose,
		Frequency:  frequency,
		Route:      route,
	}
}

// Clone 返回一份深拷贝。
func (m *MedicationFact) Clone() *MedicationFact {
	c := *m
	c.ValidEnd = copyTime(m.ValidEnd)
	return &c
}

// EnsureDefaults 为外部解码得到的记录补齐缺省字段。
func (m *MedicationFact) EnsureDefaults(now time.Time) {
	m.ensureDefaults(now, StatusCompleted)
}
