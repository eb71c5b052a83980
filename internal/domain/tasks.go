package domain

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

type TaskTemplate struct {
	ID          string
	Title       string
	Description string
	Difficulty  Difficulty
	Category    string
	Language    Language
	StarterCode string
}

var taskLibrary = []TaskTemplate{
	{
		ID:          "sort-array",
		Title:       "Sort an array",
		Description: "Write a function that takes an array of numbers and returns it sorted in ascending order.\n\nExample:\nInput: [5, 2, 8, 1, 9]\nOutput: [1, 2, 5, 8, 9]",
		Difficulty:  DifficultyEasy,
		Category:    "Arrays",
		Language:    LanguageJavaScript,
		StarterCode: "function sortArray(arr) {\n  // your solution\n  \n}\n\n// Test\nconsole.log(sortArray([5, 2, 8, 1, 9]));",
	},
	{
		ID:          "reverse-string",
		Title:       "Reverse a string",
		Description: "Write a function that reverses a string.\n\nExample:\nInput: \"hello\"\nOutput: \"olleh\"",
		Difficulty:  DifficultyEasy,
		Category:    "Strings",
		Language:    LanguageJavaScript,
		StarterCode: "function reverseString(str) {\n  // your solution\n  \n}\n\n// Test\nconsole.log(reverseString(\"hello\"));",
	},
	{
		ID:          "fibonacci",
		Title:       "Fibonacci sequence",
		Description: "Write a function that returns the n-th Fibonacci number.\n\nSequence: 0, 1, 1, 2, 3, 5, 8, 13...\n\nExample:\nInput: 6\nOutput: 8",
		Difficulty:  DifficultyMedium,
		Category:    "Algorithms",
		Language:    LanguageJavaScript,
		StarterCode: "function fibonacci(n) {\n  // your solution\n  \n}\n\n// Test\nconsole.log(fibonacci(6));",
	},
	{
		ID:          "two-sum",
		Title:       "Two Sum",
		Description: "Given an array of numbers and a target, return the indices of the two numbers that add up to the target.\n\nExample:\nInput: nums = [2, 7, 11, 15], target = 9\nOutput: [0, 1]",
		Difficulty:  DifficultyMedium,
		Category:    "Arrays",
		Language:    LanguageJavaScript,
		StarterCode: "function twoSum(nums, target) {\n  // your solution\n  \n}\n\n// Test\nconsole.log(twoSum([2, 7, 11, 15], 9));",
	},
	{
		ID:          "is-palindrome",
		Title:       "Palindrome check",
		Description: "Write a function that checks whether a string reads the same in both directions.\n\nExample:\nInput: \"racecar\"\nOutput: true",
		Difficulty:  DifficultyEasy,
		Category:    "Strings",
		Language:    LanguageJavaScript,
		StarterCode: "function isPalindrome(str) {\n  // your solution\n  \n}\n\n// Test\nconsole.log(isPalindrome(\"racecar\"));",
	},
	{
		ID:          "binary-search",
		Title:       "Binary search",
		Description: "Implement binary search over a sorted array. Return the index of the target or -1.\n\nExample:\nInput: arr = [1, 3, 5, 7, 9], target = 5\nOutput: 2",
		Difficulty:  DifficultyMedium,
		Category:    "Algorithms",
		Language:    LanguageJavaScript,
		StarterCode: "function binarySearch(arr, target) {\n  // your solution\n  \n}\n\n// Test\nconsole.log(binarySearch([1, 3, 5, 7, 9], 5));",
	},
	{
		ID:          "sort-array-py",
		Title:       "Sort an array",
		Description: "Write a function that takes a list of numbers and returns it sorted in ascending order.\n\nExample:\nInput: [5, 2, 8, 1, 9]\nOutput: [1, 2, 5, 8, 9]",
		Difficulty:  DifficultyEasy,
		Category:    "Arrays",
		Language:    LanguagePython,
		StarterCode: "def sort_array(arr):\n    # your solution\n    pass\n\n\nprint(sort_array([5, 2, 8, 1, 9]))",
	},
	{
		ID:          "fibonacci-py",
		Title:       "Fibonacci sequence",
		Description: "Write a function that returns the n-th Fibonacci number.\n\nExample:\nInput: 6\nOutput: 8",
		Difficulty:  DifficultyMedium,
		Category:    "Algorithms",
		Language:    LanguagePython,
		StarterCode: "def fibonacci(n):\n    # your solution\n    pass\n\n\nprint(fibonacci(6))",
	},
}

func TaskLibrary() []TaskTemplate {
	out := make([]TaskTemplate, len(taskLibrary))
	copy(out, taskLibrary)
	return out
}

func FindTask(id string) (TaskTemplate, bool) {
	for _, t := range taskLibrary {
		if t.ID == id {
			return t, true
		}
	}
	return TaskTemplate{}, false
}
