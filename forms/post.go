package forms

import (
	"net/url"
	"strconv"
	"time"

	"github.com/rpupo63/blogicum/models"
)

// Accepted layouts for the publication date, most specific first.
var pubDateLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

type postInput struct {
	Title    string `form:"title" validate:"required,max=256"`
	Text     string `form:"text" validate:"required"`
	PubDate  string `form:"pub_date" validate:"required"`
	Location string `form:"location" validate:"omitempty,number"`
	Category string `form:"category" validate:"required,number"`
}

// PostForm edits every user-facing field of a post. The author, published
// flag and creation time are not editable.
type PostForm struct {
	Form

	PubDate    time.Time
	CategoryID uint
	LocationID *uint
	// ClearImage is set when the author ticked "clear" on an existing image.
	ClearImage bool
	// CurrentImage is the URL of the stored image, shown next to the file input.
	CurrentImage string

	loc *time.Location
}

// NewPostForm builds an unbound form. When post is non-nil its values
// pre-fill the fields.
func NewPostForm(categories []*models.Category, locations []*models.Location, post *models.Post, loc *time.Location) *PostForm {
	if loc == nil {
		loc = time.UTC
	}

	categoryChoices := []Choice{{Value: "", Label: "---------"}}
	for _, c := range categories {
		categoryChoices = append(categoryChoices, Choice{Value: strconv.FormatUint(uint64(c.ID), 10), Label: c.Title})
	}
	locationChoices := []Choice{{Value: "", Label: "---------"}}
	for _, l := range locations {
		locationChoices = append(locationChoices, Choice{Value: strconv.FormatUint(uint64(l.ID), 10), Label: l.Name})
	}

	f := &PostForm{
		Form: Form{Fields: []*Field{
			{Name: "title", Label: "Title", Widget: WidgetText, Required: true},
			{Name: "text", Label: "Text", Widget: WidgetTextarea, Required: true},
			{
				Name:     "pub_date",
				Label:    "Publication date",
				Widget:   WidgetDate,
				Required: true,
				HelpText: "Set a date in the future to schedule the post.",
				Attrs:    map[string]string{"type": "date"},
			},
			{Name: "location", Label: "Location", Widget: WidgetSelect, Choices: locationChoices},
			{Name: "category", Label: "Category", Widget: WidgetSelect, Required: true, Choices: categoryChoices},
			{Name: "image", Label: "Image", Widget: WidgetFile, Attrs: map[string]string{"accept": "image/*"}},
		}},
		loc: loc,
	}

	if post != nil {
		f.Field("title").Value = post.Title
		f.Field("text").Value = post.Text
		if !post.PubDate.IsZero() {
			f.Field("pub_date").Value = post.PubDate.In(loc).Format("2006-01-02")
		}
		if post.CategoryID != nil {
			f.Field("category").Value = strconv.FormatUint(uint64(*post.CategoryID), 10)
		}
		if post.LocationID != nil {
			f.Field("location").Value = strconv.FormatUint(uint64(*post.LocationID), 10)
		}
	}
	return f
}

// Bind validates submitted values. It returns Valid().
func (f *PostForm) Bind(values url.Values) bool {
	f.bind(values)
	f.check(postInput{
		Title:    f.cleaned("title"),
		Text:     f.cleaned("text"),
		PubDate:  f.cleaned("pub_date"),
		Location: f.cleaned("location"),
		Category: f.cleaned("category"),
	})
	f.ClearImage = values.Get("image-clear") != ""

	if !f.hasErrors("pub_date") {
		pubDate, ok := parsePubDate(f.cleaned("pub_date"), f.loc)
		if !ok {
			f.AddError("pub_date", "Enter a valid date.")
		}
		f.PubDate = pubDate
	}

	if !f.hasErrors("category") {
		id, ok := choiceID(f.Field("category"))
		if !ok {
			f.AddError("category", "Select a valid choice. That choice is not one of the available choices.")
		}
		f.CategoryID = id
	}

	if raw := f.cleaned("location"); raw != "" && !f.hasErrors("location") {
		id, ok := choiceID(f.Field("location"))
		if !ok {
			f.AddError("location", "Select a valid choice. That choice is not one of the available choices.")
		} else {
			f.LocationID = &id
		}
	}

	return f.Valid()
}

// Apply copies the cleaned values onto post.
func (f *PostForm) Apply(post *models.Post) {
	post.Title = f.cleaned("title")
	post.Text = f.cleaned("text")
	post.PubDate = f.PubDate.UTC()
	categoryID := f.CategoryID
	post.CategoryID = &categoryID
	post.LocationID = f.LocationID
}

func parsePubDate(raw string, loc *time.Location) (time.Time, bool) {
	for _, layout := range pubDateLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// choiceID parses the field value and checks it against the offered choices.
func choiceID(field *Field) (uint, bool) {
	raw := field.raw
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	for _, c := range field.Choices {
		if c.Value == raw {
			return uint(id), true
		}
	}
	return 0, false
}
