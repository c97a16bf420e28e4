package notifier

import (
	"fmt"
	"strings"

	"StrokeSentinel/internal/model"
)

const timeLayout = "2006-01-02 15:04"

func directionText(d model.Direction) string {
	switch d {
	case model.DirectionUp:
		return "向上"
	case model.DirectionDown:
		return "向下"
	default:
		return "-"
	}
}

// FormatStroke formats a newly confirmed stroke.
func FormatStroke(freq string, s *model.Stroke) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("✏️ <b>%s %s 新笔确认</b>\n\n", s.Symbol, freq))
	b.WriteString(fmt.Sprintf("方向: %s\n", directionText(s.Direction)))
	b.WriteString(fmt.Sprintf("起点: %s @ %.2f\n", s.Start().Format(timeLayout), s.FxA.Fx))
	b.WriteString(fmt.Sprintf("终点: %s @ %.2f\n", s.End().Format(timeLayout), s.FxB.Fx))
	b.WriteString(fmt.Sprintf("力度: %.2f (%+.2f%%) | 长度: %d | RSQ: %.4f\n", s.Power, s.Change*100, s.Length, s.RSQ))
	return b.String()
}

// FormatStrokeList formats the newest strokes of a timeframe, newest first.
func FormatStrokeList(symbol, freq string, strokes []*model.Stroke, limit int) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📐 <b>%s %s 笔列表</b> (共%d笔)\n\n", symbol, freq, len(strokes)))
	if len(strokes) == 0 {
		b.WriteString("暂无确认的笔\n")
		return b.String()
	}
	for i := len(strokes) - 1; i >= 0 && len(strokes)-i <= limit; i-- {
		s := strokes[i]
		b.WriteString(fmt.Sprintf("#%d %s %s → %s  %.2f → %.2f\n",
			s.ID, directionText(s.Direction), s.Start().Format(timeLayout), s.End().Format(timeLayout), s.FxA.Fx, s.FxB.Fx))
	}
	return b.String()
}

// FormatSignalReport formats the headline fields of a signal vector.
func FormatSignalReport(freq string, v model.SignalVector) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📊 <b>%s %s 信号</b> | %s\n\n", v.Symbol, freq, v.Time.Format(timeLayout)))
	b.WriteString(fmt.Sprintf("收盘: %.2f | 未完成K线: %d\n", v.Close, v.WorkingLen))
	b.WriteString(fmt.Sprintf("笔状态: %s | 区域: %s | 分型: %s\n", v.BiRelation, v.Zone, v.EndFractal))

	if r := v.Ranks[0]; r.Direction != "" {
		b.WriteString(fmt.Sprintf("最近一笔: %s 长度%d 力度%.2f 涨跌%+.2f%% RSQ %.4f\n",
			directionText(r.Direction), r.Length, r.Power, r.Change*100, r.RSQ))
		last := v.Rolling[0]
		b.WriteString(fmt.Sprintf("近%d笔区间: %.2f ~ %.2f\n", last.Count, last.Low, last.High))
	}

	var shapes []string
	for i, n := range model.ShapeSizes {
		if l := v.Shapes[i][0]; l != model.LabelOther {
			shapes = append(shapes, fmt.Sprintf("%d笔:%s", n, l))
		}
	}
	if len(shapes) > 0 {
		b.WriteString("形态: " + strings.Join(shapes, " ") + "\n")
	}
	return b.String()
}

// FormatZoneAlert formats a buy or sell zone entry.
func FormatZoneAlert(freq string, v model.SignalVector) string {
	title := "🟢 <b>进入买点区间</b>"
	if v.Zone == model.LabelInSellZone {
		title = "🔴 <b>进入卖点区间</b>"
	}
	return fmt.Sprintf("%s | %s %s\n\n收盘: %.2f\n笔状态: %s | 分型: %s\n",
		title, v.Symbol, freq, v.Close, v.BiRelation, v.EndFractal)
}

// FormatAlignment formats the lower timeframe strokes inside a higher timeframe stroke.
func FormatAlignment(higher, lower string, parent *model.Stroke, sub []*model.Stroke) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🔗 <b>%s → %s 笔映射</b>\n\n", higher, lower))
	if parent == nil {
		b.WriteString(fmt.Sprintf("%s 暂无确认的笔\n", higher))
		return b.String()
	}
	b.WriteString(fmt.Sprintf("%s: %s %s → %s\n", higher, directionText(parent.Direction),
		parent.Start().Format(timeLayout), parent.End().Format(timeLayout)))
	if len(sub) == 0 {
		b.WriteString(fmt.Sprintf("%s 内无对应的笔\n", lower))
		return b.String()
	}
	b.WriteString(fmt.Sprintf("%s 内含 %d 笔:\n", lower, len(sub)))
	for _, s := range sub {
		b.WriteString(fmt.Sprintf("  %s %.2f → %.2f\n", directionText(s.Direction), s.FxA.Fx, s.FxB.Fx))
	}
	return b.String()
}
