package service

import (
	"context"

	"github.com/inw2st/SchoolLife/internal/model"
	"github.com/inw2st/SchoolLife/pkg/kvstore"
)

// ── Mock 共享存储 ──

type fakeKV struct {
	data     map[string]string
	notified int
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: make(map[string]string)}
}

func (f *fakeKV) Get(_ context.Context, key string) (string, error) {
	return f.data[key], nil
}

func (f *fakeKV) Set(_ context.Context, key, value string) error {
	f.data[key] = value
	return nil
}

func (f *fakeKV) Delete(_ context.Context, key string) error {
	delete(f.data, key)
	return nil
}

func (f *fakeKV) NotifyChanged(_ context.Context) error {
	f.notified++
	return nil
}

func (f *fakeKV) Watch(_ context.Context) (<-chan struct{}, error) {
	ch := make(chan struct{})
	close(ch)
	return ch, nil
}

// selectSchool 预置已选择学校的存储状态
func (f *fakeKV) selectSchool(officeCode, schoolCode, schoolName, grade, class string) {
	f.data[kvstore.KeyOfficeCode] = officeCode
	f.data[kvstore.KeySchoolCode] = schoolCode
	f.data[kvstore.KeySchoolName] = schoolName
	f.data[kvstore.KeyGrade] = grade
	f.data[kvstore.KeyClass] = class
}

// ── Mock NEIS 抓取器 ──

type mockFetcher struct {
	schools    []model.SchoolRow
	timetables map[string][]model.TimetableRecord // ymd → 记录集
	meals      map[string][]model.MealRecord      // ymd → 记录集

	searchErr    error
	timetableErr error
	mealErr      error

	timetableCalls int
}

func newMockFetcher() *mockFetcher {
	return &mockFetcher{
		timetables: make(map[string][]model.TimetableRecord),
		meals:      make(map[string][]model.MealRecord),
	}
}

func (m *mockFetcher) SearchSchools(_ context.Context, _ string) ([]model.SchoolRow, error) {
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	return m.schools, nil
}

func (m *mockFetcher) FetchTimetable(_ context.Context, _, _, ymd, _, _ string) ([]model.TimetableRecord, error) {
	m.timetableCalls++
	if m.timetableErr != nil {
		return nil, m.timetableErr
	}
	return m.timetables[ymd], nil
}

func (m *mockFetcher) FetchMeals(_ context.Context, _, _, ymd string) ([]model.MealRecord, error) {
	if m.mealErr != nil {
		return nil, m.mealErr
	}
	return m.meals[ymd], nil
}
