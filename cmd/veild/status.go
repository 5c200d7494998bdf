package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"
	"github.com/veilcash/veild/internal/core/domain"
)

var status = cli.Command{
	Name:   "status",
	Usage:  "show the tasks of the last funding run",
	Action: statusAction,
}

func statusAction(ctx *cli.Context) error {
	taskRepo, err := getTaskRepository()
	if err != nil {
		return err
	}

	tasks, err := taskRepo.GetAllTasks(context.Background())
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		fmt.Println("no funding run recorded yet")
		return nil
	}

	fmt.Println()
	for _, task := range tasks {
		line := fmt.Sprintf(
			"%4d  %s  %-10s  %s SOL",
			task.RecipientIndex, task.RecipientAddress, task.Status,
			formatSol(task.GrossAmount),
		)
		switch task.Status {
		case domain.FundingTaskStatusSucceeded:
			line += "  " + task.TxSignature
		case domain.FundingTaskStatusFailed:
			line += "  " + task.ErrorDetail
		}
		fmt.Println(line)
	}

	counts, err := taskRepo.CountByStatus(context.Background())
	if err != nil {
		return err
	}
	fmt.Printf(
		"\n%d/%d recipients funded\n",
		counts[domain.FundingTaskStatusSucceeded], len(tasks),
	)
	return nil
}
