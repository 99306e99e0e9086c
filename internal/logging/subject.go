package logging

import "strings"

// FormatSubject builds the worker/job/stage subject string used in console output.
func FormatSubject(worker, jobID, stage string) string {
	worker = strings.TrimSpace(worker)
	jobID = strings.TrimSpace(jobID)
	stage = strings.TrimSpace(stage)
	parts := make([]string, 0, 3)
	if worker != "" {
		var formattedWorker string
		if len(worker) > 1 {
			formattedWorker = strings.ToUpper(worker[:1]) + strings.ToLower(worker[1:])
		} else {
			formattedWorker = strings.ToUpper(worker)
		}
		parts = append(parts, formattedWorker)
	}
	switch {
	case jobID != "" && stage != "":
		parts = append(parts, "Job #"+jobID+" ("+stage+")")
	case jobID != "":
		parts = append(parts, "Job #"+jobID)
	case stage != "":
		parts = append(parts, stage)
	}
	return strings.Join(parts, " · ")
}
