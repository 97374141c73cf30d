package model

// TimetableRecord NEIS 课表原始记录
// 每次抓取重新生成，核心不做任何持久化（只有覆盖层会落盘）
// 所有字段保持 NEIS 返回的文本形态，身份由 (日期, 年级, 班级, 节次) 四元组确定
type TimetableRecord struct {
	Date       string `json:"date"`        // ALL_TI_YMD，YYYYMMDD
	Grade      string `json:"grade"`       // GRADE
	Class      string `json:"class"`       // CLASS_NM
	Period     string `json:"period"`      // PERIO
	RawSubject string `json:"raw_subject"` // ITRT_CNTNT，可能为空或占位符 "-"
}
