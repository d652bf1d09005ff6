package ai

import (
	"strconv"
	"strings"

	"paisa/internal/core"
)

func categoryList() string {
	cats := core.Categories()
	names := make([]string, len(cats))
	for i, c := range cats {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}

func categorizePrompt(notificationText string) string {
	return "You are a personal finance assistant that categorizes expenses from SMS or UPI notifications.\n\n" +
		"Analyze the following notification text. Determine the most appropriate expense category, " +
		"extract the expense amount if present, and the merchant name if present.\n\n" +
		"Notification text: " + notificationText + "\n\n" +
		"Expense categories: " + categoryList() + "\n\n" +
		"Output STRICT JSON only (no comments, no extra text), one object with these fields:\n" +
		"- \"category\": string, one of the categories above\n" +
		"- \"amount\": number or null (the expense amount in major units, e.g. 450.00)\n" +
		"- \"merchant\": string or null\n\n" +
		"Omit amount or merchant (use null) when the notification does not state them.\n" +
		"Do NOT wrap the response in code fences. Output must begin with \"{\" and end with \"}\"."
}

func receiptPrompt() string {
	return "You are an expert at reading receipts and extracting key information. " +
		"Analyze the attached receipt image.\n\n" +
		"Identify the merchant's name, the total amount of the transaction, and categorize the " +
		"expense into one of: " + categoryList() + ".\n" +
		"Prioritize the final total, which often includes taxes or tips.\n\n" +
		"Output STRICT JSON only, one object with these fields:\n" +
		"- \"category\": string\n" +
		"- \"amount\": number (major units)\n" +
		"- \"merchant\": string\n\n" +
		"Do NOT use Markdown. Output must begin with \"{\" and end with \"}\"."
}

func advicePrompt(income core.Money, spendingHistory, financialGoals string) string {
	return "You are an AI personal finance advisor. Analyze the user's income, spending habits, and " +
		"financial goals to generate personalized budget suggestions and savings tips.\n\n" +
		"Monthly income: " + strconv.FormatFloat(income.Float(), 'f', 2, 64) + "\n" +
		"Spending history: " + spendingHistory + "\n" +
		"Financial goals: " + financialGoals + "\n\n" +
		"Provide a detailed suggested budget with limits for categories like " + categoryList() + ". " +
		"Also suggest specific, actionable savings tips tailored to the user's situation.\n\n" +
		"Output STRICT JSON only, one object with these fields:\n" +
		"- \"suggestedBudget\": string (a clear budget breakdown)\n" +
		"- \"savingsTips\": string\n\n" +
		"Do NOT use Markdown fences. Output must begin with \"{\" and end with \"}\"."
}
