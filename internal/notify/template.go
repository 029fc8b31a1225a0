package notify

import (
	"bytes"
	htmltmpl "html/template"
	texttmpl "text/template"

	"github.com/nhle/hsck/internal/model"
)

// ReminderSubject is the subject line of the missing-homework reminder.
const ReminderSubject = "作业未提交提醒 / Homework submission reminder"

var reminderText = texttmpl.Must(texttmpl.New("reminder.txt").Option("missingkey=error").Parse(
	`亲爱的{{.Name}}同学：
系统检测到您尚未提交作业<{{.Homework}}>，请及时提交。
请勿回复这封邮件。

Dear {{.Name}},
Our records show that you have not yet submitted the homework <{{.Homework}}>. Please submit it as soon as possible.
Please do not reply to this email.
`))

var reminderHTML = htmltmpl.Must(htmltmpl.New("reminder.gohtml").Option("missingkey=error").Parse(
	`<p>亲爱的{{.Name}}同学：</p>
<p>系统检测到您尚未提交作业<strong>{{.Homework}}</strong>，请及时提交。</p>
<p>请勿回复这封邮件。</p>
<hr>
<p>Dear {{.Name}},</p>
<p>Our records show that you have not yet submitted the homework <strong>{{.Homework}}</strong>. Please submit it as soon as possible.</p>
<p>Please do not reply to this email.</p>
`))

type reminderData struct {
	Name     string
	Homework string
}

// renderReminder returns the plain-text and HTML bodies of the reminder
// for stu.
func renderReminder(homework string, stu model.Student) (text, html string, err error) {
	data := reminderData{Name: stu.Name, Homework: homework}

	var tb bytes.Buffer
	if err := reminderText.Execute(&tb, data); err != nil {
		return "", "", err
	}

	var hb bytes.Buffer
	if err := reminderHTML.Execute(&hb, data); err != nil {
		return "", "", err
	}

	return tb.String(), hb.String(), nil
}
