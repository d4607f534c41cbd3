package server

import (
	"net/http"
	"net/url"
	"sort"

	"github.com/go-chi/chi/v5"

	"github.com/woomarket/console/internal/metrics"
	"github.com/woomarket/console/internal/store"
)

type tasksData struct {
	baseData
	Tasks      []store.Task
	Categories []store.TaskCategory

	// Form state for the shared create/edit modal. Editing carries the id;
	// creating starts from the zero form with the default category.
	ShowForm bool
	Form     store.Task
}

// TaskList returns the tasks of a snapshot sorted by title for a stable
// listing; the store itself keeps no order.
func TaskList(tasks map[string]store.Task) []store.Task {
	out := make([]store.Task, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out
}

func (s *Server) handleTasks(w http.ResponseWriter, r *http.Request) {
	tasks := s.hub.Tasks()
	data := tasksData{
		baseData:   newBaseData(r, "Tasks", "tasks"),
		Tasks:      TaskList(tasks),
		Categories: store.Categories(),
	}

	if editID := r.URL.Query().Get("edit"); editID != "" {
		if task, ok := tasks[editID]; ok {
			data.ShowForm = true
			data.Form = task
		}
	} else if r.URL.Query().Get("new") == "1" {
		data.ShowForm = true
		data.Form = store.Task{Category: store.CategoryTelegram}
	}

	s.render(w, http.StatusOK, "tasks", data)
}

// decodeTaskForm maps the posted form onto a task document. The category is
// taken as submitted; the console validates nothing beyond numeric parsing.
func decodeTaskForm(form url.Values) store.Task {
	return store.Task{
		Title:       form.Get("title"),
		Description: form.Get("description"),
		URL:         form.Get("url"),
		Reward:      formFloat(form, "reward"),
		Category:    store.TaskCategory(form.Get("category")),
	}
}

// handleTaskCreate appends a new task; the store generates its identifier.
func (s *Server) handleTaskCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.redirect(w, r, "/tasks", url.Values{"error": {"invalid form submission"}})
		return
	}

	task := decodeTaskForm(r.PostForm)
	id, err := s.store.Append(r.Context(), store.PathTasks, task)
	metrics.RecordMutation("task_create", err)
	if err != nil {
		s.failAction(w, r, "/tasks", "task_create", err)
		return
	}
	s.log.Info("task created", "id", id, "title", task.Title)
	s.redirect(w, r, "/tasks", url.Values{"flash": {"Task created."}})
}

// handleTaskUpdate merges the form's current fields into the existing task,
// keyed by its original identifier.
func (s *Server) handleTaskUpdate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := r.ParseForm(); err != nil {
		s.redirect(w, r, "/tasks", url.Values{"error": {"invalid form submission"}})
		return
	}

	task := decodeTaskForm(r.PostForm)
	err := s.store.Merge(r.Context(), store.PathTasks+"/"+id, task)
	metrics.RecordMutation("task_update", err)
	if err != nil {
		s.failAction(w, r, "/tasks", "task_update", err)
		return
	}
	s.redirect(w, r, "/tasks", url.Values{"flash": {"Task updated."}})
}

// handleTaskDelete removes a task outright. The confirmation happens on the
// client; there is no undo.
func (s *Server) handleTaskDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	err := s.store.Remove(r.Context(), store.PathTasks+"/"+id)
	metrics.RecordMutation("task_delete", err)
	if err != nil {
		s.failAction(w, r, "/tasks", "task_delete", err)
		return
	}
	s.redirect(w, r, "/tasks", url.Values{"flash": {"Task deleted."}})
}
