package handlers

import (
	"net/http"

	"github.com/snmlog/transferplus/internal/models"
)

// listVessels returns the vessel dropdown values. The curated lookup table
// wins; when it is empty the names seen in imported data are offered.
func (rt *Router) listVessels(w http.ResponseWriter, req *http.Request) {
	db := rt.db.WithContext(req.Context())

	var names []string
	if err := db.Model(&models.Vessel{}).Order("name").Pluck("name", &names).Error; err != nil {
		rt.respondLifecycleError(w, err)
		return
	}
	if len(names) == 0 {
		if err := db.Model(&models.Desembarque{}).
			Distinct("from_vessel").
			Where("from_vessel <> ''").
			Order("from_vessel").
			Pluck("from_vessel", &names).Error; err != nil {
			rt.respondLifecycleError(w, err)
			return
		}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"vessels": names})
}

// listDepartments returns the department dropdown values, same fallback as
// vessels.
func (rt *Router) listDepartments(w http.ResponseWriter, req *http.Request) {
	db := rt.db.WithContext(req.Context())

	var names []string
	if err := db.Model(&models.Department{}).Order("name").Pluck("name", &names).Error; err != nil {
		rt.respondLifecycleError(w, err)
		return
	}
	if len(names) == 0 {
		if err := db.Model(&models.Desembarque{}).
			Distinct("from_department").
			Where("from_department <> ''").
			Order("from_department").
			Pluck("from_department", &names).Error; err != nil {
			rt.respondLifecycleError(w, err)
			return
		}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"departments": names})
}
