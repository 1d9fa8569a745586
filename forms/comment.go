package forms

import (
	"net/url"

	"github.com/rpupo63/blogicum/models"
)

type commentInput struct {
	Text string `form:"text" validate:"required"`
}

type CommentForm struct {
	Form
}

func NewCommentForm(comment *models.Comment) *CommentForm {
	f := &CommentForm{Form: Form{Fields: []*Field{
		{Name: "text", Label: "Comment", Widget: WidgetTextarea, Required: true, Attrs: map[string]string{"rows": "3"}},
	}}}
	if comment != nil {
		f.Field("text").Value = comment.Text
	}
	return f
}

func (f *CommentForm) Bind(values url.Values) bool {
	f.bind(values)
	f.check(commentInput{Text: f.cleaned("text")})
	return f.Valid()
}

func (f *CommentForm) Apply(comment *models.Comment) {
	comment.Text = f.cleaned("text")
}
