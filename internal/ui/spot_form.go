package ui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/bft-labs/fishdiary/internal/app"
	"github.com/bft-labs/fishdiary/internal/domain"
)

const (
	fieldLat = iota
	fieldLng
	fieldTitle
	fieldDescription
	fieldImage
	fieldCount
)

// FormModel edits one spot through an app.Editor. New spots start
// without an editor; the draft is created from the typed coordinate on
// the first save, after which the coordinate fields are locked.
type FormModel struct {
	ctx    context.Context
	store  Store
	editor *app.Editor
	keys   FormKeyMap

	inputs  []textinput.Model
	focused int
	pending []string
	saving  bool
	err     string
}

// NewFormModel creates a form. A nil editor starts a new spot.
func NewFormModel(ctx context.Context, store Store, editor *app.Editor, keys FormKeyMap) *FormModel {
	inputs := make([]textinput.Model, fieldCount)

	inputs[fieldLat] = textinput.New()
	inputs[fieldLat].Placeholder = "Latitude, e.g. 59.3293"
	inputs[fieldLat].CharLimit = 20

	inputs[fieldLng] = textinput.New()
	inputs[fieldLng].Placeholder = "Longitude, e.g. 18.0686"
	inputs[fieldLng].CharLimit = 20

	inputs[fieldTitle] = textinput.New()
	inputs[fieldTitle].Placeholder = "Spot name"
	inputs[fieldTitle].CharLimit = 100

	inputs[fieldDescription] = textinput.New()
	inputs[fieldDescription].Placeholder = "Notes, bait, depth"
	inputs[fieldDescription].CharLimit = 500

	inputs[fieldImage] = textinput.New()
	inputs[fieldImage].Placeholder = "Photo path or URI, enter to attach"
	inputs[fieldImage].CharLimit = 500

	f := &FormModel{
		ctx:    ctx,
		store:  store,
		editor: editor,
		keys:   keys,
		inputs: inputs,
	}
	if editor != nil {
		s := editor.Spot()
		f.inputs[fieldLat].SetValue(strconv.FormatFloat(s.Coordinate.Latitude, 'f', -1, 64))
		f.inputs[fieldLng].SetValue(strconv.FormatFloat(s.Coordinate.Longitude, 'f', -1, 64))
		f.inputs[fieldTitle].SetValue(s.Title)
		f.inputs[fieldDescription].SetValue(s.Description)
		f.focused = fieldTitle
	}
	f.inputs[f.focused].Focus()
	return f
}

// Init starts the cursor blink.
func (f *FormModel) Init() tea.Cmd {
	return textinput.Blink
}

func (f *FormModel) editing() bool {
	return f.editor != nil && f.editor.Status() != app.EditDraft
}

func (f *FormModel) coordinateLocked() bool {
	return f.editor != nil
}

func (f *FormModel) fail(err error) {
	f.saving = false
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		f.err = verr.Error()
		return
	}
	f.err = err.Error()
}

// Update handles input.
func (f FormModel) Update(msg tea.KeyMsg) (FormModel, tea.Cmd) {
	if f.saving {
		return f, nil
	}

	switch {
	case key.Matches(msg, f.keys.Cancel):
		if f.editor != nil {
			f.editor.Cancel()
		}
		return f, func() tea.Msg { return formCancelledMsg{} }
	case key.Matches(msg, f.keys.Save):
		cmd := f.save()
		return f, cmd
	case key.Matches(msg, f.keys.Delete):
		cmd := f.delete()
		return f, cmd
	case key.Matches(msg, f.keys.Next):
		f.move(1)
		return f, nil
	case key.Matches(msg, f.keys.Prev):
		f.move(-1)
		return f, nil
	case key.Matches(msg, f.keys.RemoveImage):
		f.dropLastImage()
		return f, nil
	case key.Matches(msg, f.keys.AddImage) && f.focused == fieldImage:
		if uri := strings.TrimSpace(f.inputs[fieldImage].Value()); uri != "" {
			f.pending = append(f.pending, uri)
			f.inputs[fieldImage].SetValue("")
		}
		return f, nil
	}

	var cmd tea.Cmd
	f.inputs[f.focused], cmd = f.inputs[f.focused].Update(msg)
	return f, cmd
}

func (f *FormModel) move(delta int) {
	f.inputs[f.focused].Blur()
	for {
		f.focused = (f.focused + delta + fieldCount) % fieldCount
		if !f.coordinateLocked() || f.focused >= fieldTitle {
			break
		}
	}
	f.inputs[f.focused].Focus()
}

func (f *FormModel) dropLastImage() {
	if n := len(f.pending); n > 0 {
		f.pending = f.pending[:n-1]
		return
	}
	if f.editor == nil {
		return
	}
	images := f.editor.Spot().Images
	if len(images) == 0 {
		return
	}
	if err := f.editor.RemoveImage(images[len(images)-1].ID); err != nil {
		f.err = err.Error()
	}
}

func (f *FormModel) coordinate() (domain.Coordinate, error) {
	lat, err := strconv.ParseFloat(strings.TrimSpace(f.inputs[fieldLat].Value()), 64)
	if err != nil {
		return domain.Coordinate{}, errors.New("latitude must be a number")
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(f.inputs[fieldLng].Value()), 64)
	if err != nil {
		return domain.Coordinate{}, errors.New("longitude must be a number")
	}
	c := domain.Coordinate{Latitude: lat, Longitude: lng}
	if !c.Valid() {
		return domain.Coordinate{}, fmt.Errorf("coordinate %s is out of range", c)
	}
	return c, nil
}

// save applies the inputs to the editor and persists it in the
// background. The form ignores keys until the result arrives.
func (f *FormModel) save() tea.Cmd {
	if f.editor == nil {
		coord, err := f.coordinate()
		if err != nil {
			f.err = err.Error()
			return nil
		}
		f.editor = f.store.NewDraft(coord)
	}

	ed := f.editor
	if err := ed.SetTitle(strings.TrimSpace(f.inputs[fieldTitle].Value())); err != nil {
		f.err = err.Error()
		return nil
	}
	if err := ed.SetDescription(strings.TrimSpace(f.inputs[fieldDescription].Value())); err != nil {
		f.err = err.Error()
		return nil
	}
	if len(f.pending) > 0 {
		if _, err := ed.AddImages(f.pending...); err != nil {
			f.err = err.Error()
			return nil
		}
		f.pending = nil
	}

	f.saving = true
	f.err = ""
	ctx := f.ctx
	return func() tea.Msg {
		if _, err := ed.Save(ctx); err != nil {
			return formErrMsg{err: err}
		}
		return savedMsg{spot: ed.Spot()}
	}
}

func (f *FormModel) delete() tea.Cmd {
	if !f.editing() {
		f.err = "only saved spots can be deleted"
		return nil
	}
	f.saving = true
	ed, ctx := f.editor, f.ctx
	return func() tea.Msg {
		if _, err := ed.Delete(ctx); err != nil {
			return formErrMsg{err: err}
		}
		return deletedMsg{id: ed.Spot().ID}
	}
}

// View renders the form.
func (f *FormModel) View(width int) string {
	labels := [fieldCount]string{"Latitude *", "Longitude *", "Title *", "Description", "Photos"}

	var fields []string
	for i := 0; i < fieldCount; i++ {
		if f.coordinateLocked() && (i == fieldLat || i == fieldLng) {
			fields = append(fields, LabelStyle.Render(labels[i])+"\n"+MutedStyle.Render(f.inputs[i].Value()+" (fixed)"))
			continue
		}
		fields = append(fields, renderFormField(labels[i], f.inputs[i], f.focused == i))
	}

	var photos []string
	if f.editor != nil {
		for _, img := range f.editor.Spot().Images {
			photos = append(photos, "📷 "+img.URI)
		}
	}
	for _, uri := range f.pending {
		photos = append(photos, "📷 "+uri+" (unsaved)")
	}
	if len(photos) > 0 {
		fields = append(fields, strings.Join(photos, "\n"))
	}

	if f.saving {
		fields = append(fields, WarnStyle.Render("Saving…"))
	}
	if f.err != "" {
		fields = append(fields, ErrorStyle.Render(f.err))
	}

	return PanelStyle.Width(max(width-4, 20)).Render(strings.Join(fields, "\n\n"))
}

func renderFormField(label string, input textinput.Model, focused bool) string {
	l := LabelStyle.Render(label)
	if !focused {
		l = MutedStyle.Render(label)
	}
	return l + "\n" + input.View()
}
