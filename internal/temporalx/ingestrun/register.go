package ingestrun

import (
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/workflow"
)

// Registry is satisfied by worker.Worker and the SDK test environment.
type Registry interface {
	RegisterWorkflowWithOptions(w interface{}, options workflow.RegisterOptions)
	RegisterActivityWithOptions(a interface{}, options activity.RegisterOptions)
}

func Register(r Registry, acts *Activities) {
	r.RegisterWorkflowWithOptions(Workflow, workflow.RegisterOptions{Name: WorkflowName})
	r.RegisterActivityWithOptions(acts.ParseXML, activity.RegisterOptions{Name: ActivityParseXML})
	r.RegisterActivityWithOptions(acts.CreateProtein, activity.RegisterOptions{Name: ActivityCreateProtein})
	r.RegisterActivityWithOptions(acts.Project, activity.RegisterOptions{Name: ActivityProject})
}
