package app

import (
	"fmt"
	"io"

	"github.com/nhle/hsck/internal/model"
	"github.com/nhle/hsck/internal/notify"
	"github.com/nhle/hsck/internal/theme"
)

const (
	msgAllSubmitted   = "🎉 所有学生均已提交作业 / All students have submitted"
	msgMissingHeader  = "❌ 未提交学生名单 / Students without a submission:"
	msgSent           = "✅ 邮件成功发送至 / Reminder sent to: %s"
	msgSendFailed     = "⚠ 发送邮件到 %s 失败 / Sending to %s failed: %v"
	msgCancelled      = "发送已取消 / Sending cancelled"
	msgDryRun         = "演练模式，邮件将写入 / Dry run, messages are written to: %s"
	msgReceiveMissing = "接收邮件功能尚未实现 / Receiving mail is not implemented yet"
)

// reporter prints the console report of a run.
type reporter struct {
	w io.Writer
}

func newReporter(w io.Writer) *reporter {
	return &reporter{w: w}
}

func (r *reporter) println(s string) {
	_, _ = fmt.Fprintln(r.w, s)
}

func (r *reporter) allSubmitted() {
	r.println(theme.SuccessStyle.Render(msgAllSubmitted))
}

func (r *reporter) missing(students []model.Student) {
	r.println(theme.HeaderStyle.Render(msgMissingHeader))
	for _, stu := range students {
		r.println(theme.MissingStyle.Render(stu.Name))
	}
}

func (r *reporter) results(results []notify.Result) {
	for _, res := range results {
		style := theme.ResultStyle(res.OK())
		if res.OK() {
			r.println(style.Render(fmt.Sprintf(msgSent, res.Student.Email)))
			continue
		}
		r.println(style.Render(fmt.Sprintf(msgSendFailed, res.Student.Email, res.Student.Email, res.Err)))
	}
}

func (r *reporter) cancelled() {
	r.println(theme.HintStyle.Render(msgCancelled))
}

func (r *reporter) dryRun(dir string) {
	r.println(theme.HintStyle.Render(fmt.Sprintf(msgDryRun, dir)))
}

func (r *reporter) receiveNotImplemented() {
	r.println(theme.HintStyle.Render(msgReceiveMissing))
}
