package scheduler

import (
	"strings"

	"github.com/spatipan/shift-scheduler/pkg/model"
	"github.com/spatipan/shift-scheduler/pkg/scheduler/catalog"
	"github.com/spatipan/shift-scheduler/pkg/scheduler/sat"
)

// Unassigned 无人分配的格子取值
const Unassigned = "Unassigned"

// extract 把解写回排班。
// 取值为 1 且日期未被跳过的组合执行分配，钉定组合在装载时已分配，跳过。
// 分配错误记入运行日志，不吞掉。
func (d *Driver) extract(b *catalog.Builder, last *sat.Result, res *Result) {
	if last == nil || !last.Feasible() {
		res.Log.Add("extract", "solution", OutcomeSkipped, "无可用解")
		return
	}
	sched := res.Schedule
	for _, sh := range sched.Shifts {
		if res.SkippedDates[sh.Date()] {
			continue
		}
		for _, w := range sched.Workers {
			v, ok := b.Var(sh, w.Abbreviation)
			if !ok || last.Value(v) != 1 {
				continue
			}
			if sh.HasWorker(w.Abbreviation) {
				continue
			}
			if err := sched.Assign(sh, w); err != nil {
				res.Log.Add("extract", sh.Key()+"/"+w.Abbreviation, OutcomeError, err.Error())
			}
		}
	}
}

// Grid 排班结果表：日期 -> 班次类型名 -> 人员缩写列表
type Grid map[string]map[string][]string

// BuildGrid 从排班的分配状态构建结果表
func BuildGrid(sched *model.Schedule) Grid {
	grid := make(Grid)
	for _, date := range sched.Dates() {
		shifts := sched.ShiftsOn(date)
		if len(shifts) == 0 {
			continue
		}
		row := make(map[string][]string)
		for _, sh := range shifts {
			abbrs := make([]string, 0, len(sh.Workers))
			for _, w := range sh.Workers {
				abbrs = append(abbrs, w.Abbreviation)
			}
			row[sh.Type.Name] = abbrs
		}
		grid[date] = row
	}
	return grid
}

// Cell 返回格子的显示值：无人为 Unassigned，多人用逗号连接
func (g Grid) Cell(date, typeName string) string {
	row, ok := g[date]
	if !ok {
		return Unassigned
	}
	abbrs, ok := row[typeName]
	if !ok || len(abbrs) == 0 {
		return Unassigned
	}
	return strings.Join(abbrs, ", ")
}
