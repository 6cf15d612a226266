package mcpserver

// ContentFormatContract describes the Markdown file format the content hub
// reads. LLM consumers use it when drafting new content.
const ContentFormatContract = `# EduHub Content Format

Every content file is Markdown with YAML frontmatter, stored below the
content root in one of three folders.

## Placement

| Folder | Category | Page |
|---|---|---|
| ` + "`content/tools/`" + ` | tools | /tools/{name}/ |
| ` + "`content/videos/`" + ` | videos | /videos/{name}/ |
| ` + "`content/lessons/`" + ` | lessons | /lessons/{name}/ |

` + "`" + `tools/chatgpt/index.md` + "`" + ` and ` + "`" + `tools/chatgpt.md` + "`" + ` both publish at ` + "`" + `/tools/chatgpt/` + "`" + `;
only the first file in path order is published. Files outside the three
folders are ignored.

## Frontmatter

` + "```" + `markdown
---
title: ChatGPT                       # REQUIRED
description: Conversational AI tool  # OPTIONAL, shown on cards
tags:                                # OPTIONAL, case-sensitive
  - AI
  - Writing
github: https://github.com/org/repo  # OPTIONAL, tools
youtubeLink: https://youtu.be/dQw4w9WgXcQ  # OPTIONAL, videos and lessons
slideLink: https://example.org/deck  # OPTIONAL, lessons
date: 2024-03-01                     # OPTIONAL, ISO-8601 date or datetime
---

Body text in standard Markdown.
` + "```" + `

## Rules

1. **title** is the display name everywhere. Without it the first ` + "`# `" + `
   heading is used, then the file name.
2. **tags** match exactly: ` + "`AI`" + ` and ` + "`ai`" + ` are different tags.
3. **youtubeLink** must contain an 11-character video id
   (watch?v=, youtu.be/, embed/, v/ forms are accepted). Other links are
   not embedded.
4. **date** orders listings newest first. Items without a date sort last.
5. **Encoding** is UTF-8.
`
